package patterns

import "github.com/xkilldash9x/threatlens-cli/api/schemas"

// The static threat pattern catalog. Fixed at build time; the Library type
// exposes read-only lookups over it. Pattern ids are stable and use the
// TL-<TYPE>-<NN> scheme so custom rule overlays and documentation can
// reference them.

const (
	catalogVersion = "2025.2"
	catalogSource  = "threatlens built-in catalog"
)

var catalog = []schemas.ThreatPattern{
	// -- Actors --
	{
		ID:          "TL-ACT-01",
		Title:       "Credential Theft and Account Takeover",
		Description: "An attacker obtains a legitimate user's credentials through phishing, credential stuffing, or leaked password reuse, and operates the system as that user.",
		Category:    "Authentication",
		Stride:      []schemas.StrideCategory{schemas.StrideSpoofing},
		Severity:    schemas.SeverityHigh,
		Impact:      "Full impersonation of the affected user and access to everything they can reach.",
		AppliesTo:   []schemas.ElementType{schemas.ElementTypeActor},
		Mitigations: []string{
			"Enforce multi-factor authentication for all interactive logins",
			"Monitor for credential stuffing patterns and throttle failed attempts",
			"Check submitted passwords against known-breached corpora",
		},
		OWASPCategory: "A07:2021 Identification and Authentication Failures",
	},
	{
		ID:          "TL-ACT-02",
		Title:       "Session Hijacking",
		Description: "Session tokens are stolen via XSS, insecure transport, or predictable generation, letting an attacker ride an authenticated session.",
		Category:    "Session Management",
		Stride:      []schemas.StrideCategory{schemas.StrideSpoofing, schemas.StrideElevationOfPrivilege},
		Severity:    schemas.SeverityHigh,
		Impact:      "Attacker inherits the victim's active session and privileges without needing credentials.",
		AppliesTo:   []schemas.ElementType{schemas.ElementTypeActor},
		Mitigations: []string{
			"Generate session identifiers with a cryptographically secure source",
			"Set HttpOnly, Secure and SameSite attributes on session cookies",
			"Rotate session identifiers on privilege change",
		},
		OWASPCategory: "A07:2021 Identification and Authentication Failures",
	},
	{
		ID:          "TL-ACT-03",
		Title:       "Action Repudiation by User",
		Description: "Without reliable audit trails a user can deny having performed a sensitive action, and the system cannot prove otherwise.",
		Category:    "Auditing",
		Stride:      []schemas.StrideCategory{schemas.StrideRepudiation},
		Severity:    schemas.SeverityMedium,
		Impact:      "Disputes over sensitive operations cannot be resolved; compliance evidence is missing.",
		AppliesTo:   []schemas.ElementType{schemas.ElementTypeActor},
		Mitigations: []string{
			"Log security-relevant actions with actor identity and timestamp",
			"Protect audit logs from modification by the actors they describe",
		},
		OWASPCategory: "A09:2021 Security Logging and Monitoring Failures",
	},

	// -- Processes --
	{
		ID:          "TL-PRC-01",
		Title:       "Injection via Untrusted Input",
		Description: "The process builds interpreter statements (SQL, OS commands, LDAP, template expressions) from input it did not sanitize.",
		Category:    "Input Validation",
		Stride:      []schemas.StrideCategory{schemas.StrideTampering, schemas.StrideElevationOfPrivilege},
		Severity:    schemas.SeverityCritical,
		Impact:      "Arbitrary statement execution in the backing interpreter, up to full host or data compromise.",
		AppliesTo:   []schemas.ElementType{schemas.ElementTypeProcess},
		Mitigations: []string{
			"Use parameterized queries and prepared statements exclusively",
			"Validate input against an allow-list at the trust boundary",
			"Run the process with the least privilege the task permits",
		},
		OWASPCategory: "A03:2021 Injection",
	},
	{
		ID:          "TL-PRC-02",
		Title:       "Broken Access Control Between Functions",
		Description: "The process exposes operations whose authorization checks are missing, inconsistent, or enforceable only client-side.",
		Category:    "Authorization",
		Stride:      []schemas.StrideCategory{schemas.StrideElevationOfPrivilege, schemas.StrideInformationDisclosure},
		Severity:    schemas.SeverityHigh,
		Impact:      "Users reach functionality or records belonging to other users or higher privilege tiers.",
		AppliesTo:   []schemas.ElementType{schemas.ElementTypeProcess},
		Mitigations: []string{
			"Enforce authorization server-side on every operation",
			"Deny by default; require an explicit grant per function",
			"Exercise authorization paths in automated tests",
		},
		OWASPCategory: "A01:2021 Broken Access Control",
	},
	{
		ID:          "TL-PRC-03",
		Title:       "Resource Exhaustion",
		Description: "Unbounded request rates, payload sizes, or fan-out let a single client consume the process's memory, CPU, or connection pool.",
		Category:    "Availability",
		Stride:      []schemas.StrideCategory{schemas.StrideDenialOfService},
		Severity:    schemas.SeverityMedium,
		Impact:      "Degraded or total loss of service for legitimate users.",
		AppliesTo:   []schemas.ElementType{schemas.ElementTypeProcess},
		Mitigations: []string{
			"Rate limit per client and per endpoint",
			"Cap request body sizes and processing timeouts",
			"Isolate expensive work behind queues with bounded depth",
		},
		OWASPCategory: "A04:2021 Insecure Design",
	},
	{
		ID:          "TL-PRC-04",
		Title:       "Security Misconfiguration",
		Description: "Default credentials, verbose error pages, permissive CORS, or unnecessary features left enabled in the process's deployment.",
		Category:    "Configuration",
		Stride:      []schemas.StrideCategory{schemas.StrideInformationDisclosure, schemas.StrideElevationOfPrivilege},
		Severity:    schemas.SeverityMedium,
		Impact:      "Attackers learn internals or find pre-authorized paths into the system.",
		AppliesTo:   []schemas.ElementType{schemas.ElementTypeProcess},
		Mitigations: []string{
			"Harden deployment configuration from a reviewed baseline",
			"Disable debug surfaces and default accounts in production",
			"Audit configuration drift continuously",
		},
		OWASPCategory: "A05:2021 Security Misconfiguration",
	},

	// -- Datastores --
	{
		ID:          "TL-DST-01",
		Title:       "Sensitive Data Stored Without Encryption",
		Description: "Data at rest is readable by anyone who obtains the underlying volume, backup, or snapshot.",
		Category:    "Data Protection",
		Stride:      []schemas.StrideCategory{schemas.StrideInformationDisclosure},
		Severity:    schemas.SeverityHigh,
		Impact:      "Bulk disclosure of stored records after any storage-layer compromise.",
		AppliesTo:   []schemas.ElementType{schemas.ElementTypeDatastore},
		Mitigations: []string{
			"Encrypt sensitive columns or the full store at rest",
			"Manage keys outside the datastore with rotation",
			"Encrypt backups with independent keys",
		},
		OWASPCategory: "A02:2021 Cryptographic Failures",
	},
	{
		ID:          "TL-DST-02",
		Title:       "Excessive Datastore Privileges",
		Description: "Application accounts hold broader rights (DDL, cross-schema reads, superuser) than the workload needs.",
		Category:    "Authorization",
		Stride:      []schemas.StrideCategory{schemas.StrideElevationOfPrivilege, schemas.StrideTampering},
		Severity:    schemas.SeverityMedium,
		Impact:      "A compromised application account can read or destroy data well beyond its own schema.",
		AppliesTo:   []schemas.ElementType{schemas.ElementTypeDatastore},
		Mitigations: []string{
			"Grant each service account only the statements and schemas it uses",
			"Separate read and write roles where the workload allows",
			"Review grants on a fixed cadence",
		},
		OWASPCategory: "A01:2021 Broken Access Control",
	},
	{
		ID:          "TL-DST-03",
		Title:       "Insufficient Backup and Recovery",
		Description: "Missing, untested, or co-located backups turn datastore loss or ransomware into permanent data loss.",
		Category:    "Availability",
		Stride:      []schemas.StrideCategory{schemas.StrideDenialOfService},
		Severity:    schemas.SeverityMedium,
		Impact:      "Extended outage or unrecoverable loss of stored records.",
		AppliesTo:   []schemas.ElementType{schemas.ElementTypeDatastore},
		Mitigations: []string{
			"Back up on a schedule matched to tolerable data loss",
			"Store backups in a separate failure and trust domain",
			"Rehearse restores, not just backups",
		},
		OWASPCategory: "A04:2021 Insecure Design",
	},

	// -- External entities --
	{
		ID:          "TL-EXT-01",
		Title:       "Compromised Third-Party Integration",
		Description: "An external system this design depends on is breached or impersonated, and its traffic is trusted implicitly.",
		Category:    "Supply Chain",
		Stride:      []schemas.StrideCategory{schemas.StrideSpoofing, schemas.StrideTampering},
		Severity:    schemas.SeverityHigh,
		Impact:      "Malicious data or commands enter the system with the external party's standing trust.",
		AppliesTo:   []schemas.ElementType{schemas.ElementTypeExternalEntity},
		Mitigations: []string{
			"Authenticate external callers with mutual TLS or signed requests",
			"Validate and constrain all externally supplied data",
			"Scope external credentials narrowly and rotate them",
		},
		OWASPCategory: "A08:2021 Software and Data Integrity Failures",
	},
	{
		ID:          "TL-EXT-02",
		Title:       "Unverifiable External Denials",
		Description: "Interactions with the external entity are not independently logged, so disputed exchanges cannot be reconstructed.",
		Category:    "Auditing",
		Stride:      []schemas.StrideCategory{schemas.StrideRepudiation},
		Severity:    schemas.SeverityLow,
		Impact:      "No authoritative record exists when the external party disputes what was sent or received.",
		AppliesTo:   []schemas.ElementType{schemas.ElementTypeExternalEntity},
		Mitigations: []string{
			"Record request and response digests for cross-boundary exchanges",
			"Timestamp and sign interaction logs",
		},
		OWASPCategory: "A09:2021 Security Logging and Monitoring Failures",
	},

	// -- Dataflows --
	{
		ID:                "TL-FLW-01",
		Title:             "Eavesdropping on Network Channel",
		Description:       "Traffic on this flow can be read by anyone positioned on the network path.",
		Category:          "Transport Security",
		Stride:            []schemas.StrideCategory{schemas.StrideInformationDisclosure},
		Severity:          schemas.SeverityHigh,
		Impact:            "Any data on the channel, including credentials and tokens, is exposed in transit.",
		AppliesToDataflow: true,
		Mitigations: []string{
			"Terminate the flow with TLS 1.2 or later",
			"Disable plaintext fallbacks on both endpoints",
		},
		OWASPCategory: "A02:2021 Cryptographic Failures",
	},
	{
		ID:                "TL-FLW-02",
		Title:             "Message Tampering in Transit",
		Description:       "Without integrity protection, a network position lets an attacker alter requests or responses on this flow undetected.",
		Category:          "Transport Security",
		Stride:            []schemas.StrideCategory{schemas.StrideTampering},
		Severity:          schemas.SeverityHigh,
		Impact:            "Modified payloads are processed as authentic by the receiving endpoint.",
		AppliesToDataflow: true,
		Mitigations: []string{
			"Use authenticated encryption on the channel",
			"Sign messages whose integrity must survive intermediaries",
		},
		OWASPCategory: "A08:2021 Software and Data Integrity Failures",
	},
	{
		ID:                "TL-FLW-03",
		Title:             "Cleartext Application Protocol",
		Description:       "The flow uses a protocol with no transport protection (http, ftp, telnet, smtp), exposing both credentials and payloads.",
		Category:          "Transport Security",
		Stride:            []schemas.StrideCategory{schemas.StrideInformationDisclosure, schemas.StrideSpoofing},
		Severity:          schemas.SeverityCritical,
		Impact:            "Credentials and data cross the network readable and replayable.",
		AppliesToDataflow: true,
		Protocols:         []string{"http", "ftp", "telnet", "smtp"},
		Mitigations: []string{
			"Replace the protocol with its TLS-protected equivalent",
			"Reject plaintext connections at the listener",
		},
		OWASPCategory: "A02:2021 Cryptographic Failures",
	},
	{
		ID:                "TL-FLW-04",
		Title:             "Missing Flow Authentication",
		Description:       "The receiving endpoint cannot verify who originated messages on this flow, so any network peer can inject traffic.",
		Category:          "Authentication",
		Stride:            []schemas.StrideCategory{schemas.StrideSpoofing},
		Severity:          schemas.SeverityMedium,
		Impact:            "Forged messages are indistinguishable from legitimate ones at the receiver.",
		AppliesToDataflow: true,
		Mitigations: []string{
			"Authenticate the channel with mutual TLS or per-message signatures",
			"Bind flow credentials to the specific peer pair",
		},
		OWASPCategory: "A07:2021 Identification and Authentication Failures",
	},
	{
		ID:                "TL-FLW-05",
		Title:             "Flow Flooding",
		Description:       "The flow can be saturated with junk traffic, starving the receiving endpoint's capacity for legitimate messages.",
		Category:          "Availability",
		Stride:            []schemas.StrideCategory{schemas.StrideDenialOfService},
		Severity:          schemas.SeverityLow,
		Impact:            "Legitimate traffic on the flow is delayed or dropped.",
		AppliesToDataflow: true,
		Mitigations: []string{
			"Rate limit the flow at the receiving edge",
			"Shed load preferentially for unauthenticated traffic",
		},
		OWASPCategory: "A04:2021 Insecure Design",
	},
}
