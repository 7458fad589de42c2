package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/s3nav/internal/awsfiles"
)

func resolveText(credText, cfgText string) Set {
	return Resolve(awsfiles.Parse(credText), awsfiles.NormalizeConfig(awsfiles.Parse(cfgText)))
}

func mustFind(t *testing.T, s Set, name string) Profile {
	t.Helper()
	p, ok := s.Find(name)
	require.True(t, ok, "profile %q missing", name)
	return p
}

func TestResolve_RoleWithSourceProfile(t *testing.T) {
	set := resolveText(`
[dev-usr]
aws_access_key_id = AKIADEV
aws_secret_access_key = devsecret
`, `
[profile dev]
source_profile = dev-usr
role_arn = arn:aws:iam::123456789012:role/dev
region = eu-west-1
`)

	dev := mustFind(t, set, "dev")
	assert.Equal(t, TypeRole, dev.Type())
	assert.True(t, dev.HasCredentials)
	assert.Equal(t, Validation{Valid: true}, Validate(dev))

	role, ok := dev.Mechanism.(Role)
	require.True(t, ok)
	assert.Equal(t, "dev-usr", role.SourceProfile)
	assert.Equal(t, "arn:aws:iam::123456789012:role/dev", role.RoleARN)
}

func TestResolve_Classification(t *testing.T) {
	set := resolveText(`
[static]
aws_access_key_id = A
aws_secret_access_key = S
aws_session_token = T
[half]
aws_access_key_id = A
`, `
[profile static]
sso_start_url = https://ignored.example
[profile sso]
sso_start_url = https://example.awsapps.com/start
sso_account_id = 111
sso_role_name = Admin
[profile web]
web_identity_token_file = /var/run/token
role_arn = arn:aws:iam::1:role/web
sso_x = 1
[profile proc]
credential_process = /usr/bin/creds --json
role_arn = arn:aws:iam::1:role/shadowed
[profile role]
role_arn = arn:aws:iam::1:role/r
credential_source = Ec2InstanceMetadata
[profile plain]
region = ap-south-1
`)

	tests := map[string]Type{
		"static": TypeStatic,
		"half":   TypeConfigOnly,
		"sso":    TypeSSO,
		"web":    TypeWebIdentity,
		"proc":   TypeProcess,
		"role":   TypeRole,
		"plain":  TypeConfigOnly,
	}
	for name, want := range tests {
		p := mustFind(t, set, name)
		assert.Equal(t, want, p.Type(), name)
	}

	st := mustFind(t, set, "static").Mechanism.(Static)
	assert.Equal(t, "T", st.SessionToken)

	for _, name := range []string{"static", "sso", "web", "proc", "role"} {
		assert.True(t, mustFind(t, set, name).HasCredentials, name)
	}
	for _, name := range []string{"half", "plain"} {
		p := mustFind(t, set, name)
		assert.False(t, p.HasCredentials, name)
		assert.Equal(t, "Profile has no credentials configured", Validate(p).Reason)
	}
}

func TestResolve_SSOUsabilityNeedsAllThree(t *testing.T) {
	full := map[string]string{
		"sso_session":    "corp",
		"sso_account_id": "111",
		"sso_role_name":  "Admin",
	}
	set := resolveText("", "[profile p]\nsso_session = corp\nsso_account_id = 111\nsso_role_name = Admin\n")
	assert.True(t, mustFind(t, set, "p").HasCredentials)

	for drop := range full {
		text := "[profile p]\n"
		for k, v := range full {
			if k != drop {
				text += k + " = " + v + "\n"
			}
		}
		p := mustFind(t, resolveText("", text), "p")
		assert.Equal(t, TypeSSO, p.Type(), "without %s", drop)
		assert.False(t, p.HasCredentials, "without %s", drop)
		assert.Contains(t, Validate(p).Reason, "SSO profile requires", "without %s", drop)
	}

	p := mustFind(t, resolveText("", "[profile p]\nsso_start_url = https://x\nsso_account_id = 1\n"), "p")
	assert.Equal(t, "SSO profile requires account id and role name", Validate(p).Reason)
}

func TestResolve_RoleUsability(t *testing.T) {
	creds := `
[good]
aws_access_key_id = A
aws_secret_access_key = S
[keyless]
region = us-east-1
`
	tests := []struct {
		name   string
		cfg    string
		usable bool
		reason string
	}{
		{
			name:   "source with keys",
			cfg:    "role_arn = arn:r\nsource_profile = good",
			usable: true,
		},
		{
			name:   "source lacking keys",
			cfg:    "role_arn = arn:r\nsource_profile = keyless",
			reason: "Source profile has no valid credentials",
		},
		{
			name:   "source only in config file",
			cfg:    "role_arn = arn:r\nsource_profile = cfgonly",
			reason: `Source profile "cfgonly" not found in credentials file`,
		},
		{
			name:   "neither source nor credential_source",
			cfg:    "role_arn = arn:r",
			reason: "Role profile requires source_profile or credential_source",
		},
		{
			name:   "allowed credential source wins over source profile",
			cfg:    "role_arn = arn:r\ncredential_source = EcsContainer\nsource_profile = keyless",
			usable: true,
		},
		{
			name:   "unknown credential source",
			cfg:    "role_arn = arn:r\ncredential_source = Laptop",
			reason: `Unsupported credential_source "Laptop" (expected Environment, Ec2InstanceMetadata or EcsContainer)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := resolveText(creds, "[profile cfgonly]\nregion = x\n[profile r]\n"+tt.cfg+"\n")
			p := mustFind(t, set, "r")
			assert.Equal(t, TypeRole, p.Type())
			assert.Equal(t, tt.usable, p.HasCredentials)
			v := Validate(p)
			assert.Equal(t, tt.usable, v.Valid)
			assert.Equal(t, tt.reason, v.Reason)
		})
	}
}

func TestResolve_LegacyRoleInCredentialsFile(t *testing.T) {
	set := resolveText(`
[base]
aws_access_key_id = A
aws_secret_access_key = S
[legacy]
role_arn = arn:legacy
source_profile = base
`, `
[profile legacy]
role_arn = arn:from-config
`)
	p := mustFind(t, set, "legacy")
	require.Equal(t, TypeRole, p.Type())
	role := p.Mechanism.(Role)
	assert.Equal(t, "arn:from-config", role.RoleARN, "config file wins")
	assert.Equal(t, "base", role.SourceProfile, "falls back to credentials file")
	assert.True(t, p.HasCredentials)
}

func TestResolve_OrderingAndDefaultRegion(t *testing.T) {
	set := resolveText("[zeta]\n[Beta]\n", "[profile alpha]\nregion = eu-north-1\n[default]\n[profile beta]\nregion = us-west-1\n")

	var names []string
	for _, p := range set.Profiles {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"default", "Beta", "alpha", "beta", "zeta"}, names)
	assert.Equal(t, "eu-north-1", set.DefaultRegion, "first profile in sorted order with a region")

	set = resolveText("", "[default]\nregion = sa-east-1\n[profile a]\nregion = eu-north-1\n")
	assert.Equal(t, "sa-east-1", set.DefaultRegion)

	set = resolveText("[x]\n", "")
	assert.Empty(t, set.DefaultRegion)
}

func TestResolve_EmptyInputs(t *testing.T) {
	set := Resolve(nil, nil)
	assert.Empty(t, set.Profiles)
	_, ok := set.Find("default")
	assert.False(t, ok)
}

func TestSummarizeOmitsSecrets(t *testing.T) {
	set := resolveText("[s]\naws_access_key_id = AKIASECRET\naws_secret_access_key = shh\n", "")
	s := Summarize(mustFind(t, set, "s"))
	assert.Equal(t, TypeStatic, s.Type)
	assert.True(t, s.HasCredentials)
	assert.NotContains(t, []string{s.RoleARN, s.SSOStartURL}, "AKIASECRET")
}
