// Package profile turns the AWS shared credentials and config files into
// typed, validated authentication profiles, and holds the process-wide
// active profile name.
//
// Profiles are rebuilt from disk on every resolution so that edits to
// ~/.aws take effect without a restart; only the active profile's name is
// cached (see Store).
package profile

// Type names the authentication mechanism of a profile.
type Type string

const (
	TypeStatic      Type = "static"
	TypeRole        Type = "role"
	TypeSSO         Type = "sso"
	TypeProcess     Type = "process"
	TypeWebIdentity Type = "web-identity"
	TypeConfigOnly  Type = "config-only"
)

// Mechanism is the sealed set of authentication mechanisms. Exactly one of
// Static, Role, SSO, Process, WebIdentity or ConfigOnly.
type Mechanism interface {
	Type() Type
	sealed()
}

// Static is a long-lived (or externally refreshed) key pair from the
// credentials file.
type Static struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Role assumes RoleARN using credentials from SourceProfile or from a
// well-known CredentialSource.
type Role struct {
	RoleARN          string
	SourceProfile    string
	CredentialSource string
	ExternalID       string
	MFASerial        string
	SessionName      string
}

// SSO uses IAM Identity Center, either legacy (StartURL) or via a named
// sso-session.
type SSO struct {
	StartURL  string
	Session   string
	AccountID string
	RoleName  string
	Region    string
}

// Process runs an external command that prints credentials.
type Process struct {
	Command string
}

// WebIdentity exchanges a token file for role credentials.
type WebIdentity struct {
	TokenFile   string
	RoleARN     string
	SessionName string
}

// ConfigOnly carries settings (region, output) but no way to authenticate.
type ConfigOnly struct{}

func (Static) Type() Type      { return TypeStatic }
func (Role) Type() Type        { return TypeRole }
func (SSO) Type() Type         { return TypeSSO }
func (Process) Type() Type     { return TypeProcess }
func (WebIdentity) Type() Type { return TypeWebIdentity }
func (ConfigOnly) Type() Type  { return TypeConfigOnly }

func (Static) sealed()      {}
func (Role) sealed()        {}
func (SSO) sealed()         {}
func (Process) sealed()     {}
func (WebIdentity) sealed() {}
func (ConfigOnly) sealed()  {}

// Profile is one named identity assembled from the shared files.
type Profile struct {
	Name      string
	Mechanism Mechanism
	Region    string
	Output    string

	// HasCredentials reports whether the mechanism's prerequisites are
	// satisfiable right now. Problem names the missing prerequisite when
	// HasCredentials is false.
	HasCredentials bool
	Problem        string
}

// Type returns the profile's mechanism type.
func (p Profile) Type() Type {
	if p.Mechanism == nil {
		return TypeConfigOnly
	}
	return p.Mechanism.Type()
}

// Validation is the outcome of Validate.
type Validation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Validate reports whether p can be used to authenticate and, if not, the
// specific prerequisite that is missing.
func Validate(p Profile) Validation {
	if p.HasCredentials {
		return Validation{Valid: true}
	}
	reason := p.Problem
	if reason == "" {
		reason = "Profile has no credentials configured"
	}
	return Validation{Valid: false, Reason: reason}
}

// Summary is the JSON shape handed to the GUI. Secrets are never included.
type Summary struct {
	Name           string `json:"name"`
	Type           Type   `json:"profileType"`
	Region         string `json:"region,omitempty"`
	Output         string `json:"output,omitempty"`
	HasCredentials bool   `json:"hasCredentials"`
	Problem        string `json:"problem,omitempty"`
	RoleARN        string `json:"roleArn,omitempty"`
	SourceProfile  string `json:"sourceProfile,omitempty"`
	SSOStartURL    string `json:"ssoStartUrl,omitempty"`
	SSOSession     string `json:"ssoSession,omitempty"`
	SSOAccountID   string `json:"ssoAccountId,omitempty"`
	SSORoleName    string `json:"ssoRoleName,omitempty"`
}

// Summarize strips secrets from p.
func Summarize(p Profile) Summary {
	s := Summary{
		Name:           p.Name,
		Type:           p.Type(),
		Region:         p.Region,
		Output:         p.Output,
		HasCredentials: p.HasCredentials,
		Problem:        p.Problem,
	}
	switch m := p.Mechanism.(type) {
	case Role:
		s.RoleARN = m.RoleARN
		s.SourceProfile = m.SourceProfile
	case WebIdentity:
		s.RoleARN = m.RoleARN
	case SSO:
		s.SSOStartURL = m.StartURL
		s.SSOSession = m.Session
		s.SSOAccountID = m.AccountID
		s.SSORoleName = m.RoleName
	}
	return s
}
