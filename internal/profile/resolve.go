package profile

import (
	"fmt"
	"slices"
	"strings"

	"github.com/koustreak/s3nav/internal/awsfiles"
)

// Keys recognised in the shared files.
const (
	keyAccessKeyID      = "aws_access_key_id"
	keySecretAccessKey  = "aws_secret_access_key"
	keySessionToken     = "aws_session_token"
	keyRegion           = "region"
	keyOutput           = "output"
	keyRoleARN          = "role_arn"
	keySourceProfile    = "source_profile"
	keyCredentialSource = "credential_source"
	keyExternalID       = "external_id"
	keyMFASerial        = "mfa_serial"
	keyRoleSessionName  = "role_session_name"
	keySSOStartURL      = "sso_start_url"
	keySSOSession       = "sso_session"
	keySSOAccountID     = "sso_account_id"
	keySSORoleName      = "sso_role_name"
	keySSORegion        = "sso_region"
	keyCredProcess      = "credential_process"
	keyWebIdentityFile  = "web_identity_token_file"
)

// DefaultProfileName sorts first and seeds the default region.
const DefaultProfileName = "default"

// credentialSources is the allow-list for role profiles without a
// source_profile.
var credentialSources = map[string]bool{
	"Environment":         true,
	"Ec2InstanceMetadata": true,
	"EcsContainer":        true,
}

// Set is the result of one resolution pass.
type Set struct {
	Profiles      []Profile
	DefaultRegion string
}

// Find returns the profile called name.
func (s Set) Find(name string) (Profile, bool) {
	for _, p := range s.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// Resolve merges the credentials and (normalised) config tables into a Set.
// It never fails: missing sections simply produce fewer populated fields.
func Resolve(creds, cfg awsfiles.Table) Set {
	names := map[string]struct{}{}
	for name := range creds {
		names[name] = struct{}{}
	}
	for name := range cfg {
		names[name] = struct{}{}
	}

	profiles := make([]Profile, 0, len(names))
	for name := range names {
		profiles = append(profiles, build(name, creds[name], cfg[name], creds))
	}

	slices.SortFunc(profiles, func(a, b Profile) int {
		switch {
		case a.Name == b.Name:
			return 0
		case a.Name == DefaultProfileName:
			return -1
		case b.Name == DefaultProfileName:
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})

	return Set{Profiles: profiles, DefaultRegion: defaultRegion(profiles)}
}

func defaultRegion(sorted []Profile) string {
	for _, p := range sorted {
		if p.Name == DefaultProfileName && p.Region != "" {
			return p.Region
		}
	}
	for _, p := range sorted {
		if p.Region != "" {
			return p.Region
		}
	}
	return ""
}

// build classifies one profile. credRow and cfgRow may be nil.
func build(name string, credRow, cfgRow awsfiles.Section, creds awsfiles.Table) Profile {
	// pick prefers the config file and falls back to legacy layouts that
	// duplicate settings in the credentials file.
	pick := func(key string) string {
		if v := cfgRow[key]; v != "" {
			return v
		}
		return credRow[key]
	}

	p := Profile{
		Name:   name,
		Region: pick(keyRegion),
		Output: pick(keyOutput),
	}
	p.Mechanism = classify(credRow, cfgRow, pick)
	p.HasCredentials, p.Problem = usable(p.Mechanism, creds)
	return p
}

func classify(credRow, cfgRow awsfiles.Section, pick func(string) string) Mechanism {
	switch {
	case credRow[keyAccessKeyID] != "" && credRow[keySecretAccessKey] != "":
		return Static{
			AccessKeyID:     credRow[keyAccessKeyID],
			SecretAccessKey: credRow[keySecretAccessKey],
			SessionToken:    credRow[keySessionToken],
		}
	case cfgRow[keySSOStartURL] != "" || cfgRow[keySSOSession] != "" ||
		cfgRow[keySSOAccountID] != "" || cfgRow[keySSORoleName] != "":
		return SSO{
			StartURL:  cfgRow[keySSOStartURL],
			Session:   cfgRow[keySSOSession],
			AccountID: cfgRow[keySSOAccountID],
			RoleName:  cfgRow[keySSORoleName],
			Region:    cfgRow[keySSORegion],
		}
	case cfgRow[keyWebIdentityFile] != "":
		return WebIdentity{
			TokenFile:   cfgRow[keyWebIdentityFile],
			RoleARN:     pick(keyRoleARN),
			SessionName: pick(keyRoleSessionName),
		}
	case cfgRow[keyCredProcess] != "":
		return Process{Command: cfgRow[keyCredProcess]}
	case pick(keyRoleARN) != "":
		return Role{
			RoleARN:          pick(keyRoleARN),
			SourceProfile:    pick(keySourceProfile),
			CredentialSource: pick(keyCredentialSource),
			ExternalID:       pick(keyExternalID),
			MFASerial:        pick(keyMFASerial),
			SessionName:      pick(keyRoleSessionName),
		}
	default:
		return ConfigOnly{}
	}
}

// usable decides HasCredentials. Role source profiles are looked up in the
// raw credentials table, not in the merged result.
func usable(m Mechanism, creds awsfiles.Table) (bool, string) {
	switch m := m.(type) {
	case Static:
		return true, ""
	case SSO:
		if m.StartURL == "" && m.Session == "" {
			return false, "SSO profile requires sso_start_url or sso_session"
		}
		if m.AccountID == "" || m.RoleName == "" {
			return false, "SSO profile requires account id and role name"
		}
		return true, ""
	case WebIdentity:
		if m.TokenFile == "" || m.RoleARN == "" {
			return false, "Web identity profile requires web_identity_token_file and role_arn"
		}
		return true, ""
	case Process:
		if m.Command == "" {
			return false, "Process profile requires credential_process"
		}
		return true, ""
	case Role:
		if m.CredentialSource != "" {
			if credentialSources[m.CredentialSource] {
				return true, ""
			}
			return false, fmt.Sprintf("Unsupported credential_source %q (expected Environment, Ec2InstanceMetadata or EcsContainer)", m.CredentialSource)
		}
		if m.SourceProfile == "" {
			return false, "Role profile requires source_profile or credential_source"
		}
		src, ok := creds[m.SourceProfile]
		if !ok {
			return false, fmt.Sprintf("Source profile %q not found in credentials file", m.SourceProfile)
		}
		if src[keyAccessKeyID] == "" || src[keySecretAccessKey] == "" {
			return false, "Source profile has no valid credentials"
		}
		return true, ""
	default:
		return false, "Profile has no credentials configured"
	}
}
