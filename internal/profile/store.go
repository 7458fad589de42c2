package profile

import (
	"sync"

	"github.com/koustreak/s3nav/internal/awsfiles"
	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/logger"
)

// Resolver re-reads the shared files on every call.
type Resolver struct {
	paths awsfiles.Paths
	log   *logger.Logger
}

// NewResolver returns a Resolver reading the files at paths.
func NewResolver(paths awsfiles.Paths, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{paths: paths, log: log.Component("profile")}
}

// Paths returns the shared file locations this resolver reads.
func (r *Resolver) Paths() awsfiles.Paths {
	return r.paths
}

// Resolve loads both files and resolves them. Unreadable files are logged
// and treated as empty.
func (r *Resolver) Resolve() Set {
	creds, cfg, err := awsfiles.Load(r.paths)
	if err != nil {
		r.log.WarnWith("reading aws shared files", err, map[string]interface{}{
			"credentials": r.paths.Credentials,
			"config":      r.paths.Config,
		})
	}
	return Resolve(creds, cfg)
}

// Lookup resolves and returns the profile called name. Unknown names are a
// config error.
func (r *Resolver) Lookup(name string) (Profile, Set, error) {
	set := r.Resolve()
	p, ok := set.Find(name)
	if !ok {
		return Profile{}, set, errs.Newf(errs.ErrKindConfig, "profile %q does not exist", name)
	}
	return p, set, nil
}

// Store is the process-wide active profile cell. It caches the profile name
// only; Active re-resolves so that edits to the files are picked up.
type Store struct {
	resolver *Resolver
	log      *logger.Logger

	mu     sync.Mutex
	active string
	hooks  []func()
}

// NewStore returns a Store with no active profile.
func NewStore(r *Resolver, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{resolver: r, log: log.Component("profile-store")}
}

// Resolver exposes the underlying resolver.
func (s *Store) Resolver() *Resolver {
	return s.resolver
}

// OnInvalidate registers fn to run whenever the active profile is cleared
// or replaced. The directory client uses it to drop its cached connection.
func (s *Store) OnInvalidate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Current returns the active profile name, if any.
func (s *Store) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.active != ""
}

// SetActive validates name against freshly resolved files and commits it.
// On failure the previous active profile is left untouched.
func (s *Store) SetActive(name string) (Profile, error) {
	p, _, err := s.resolver.Lookup(name)
	if err != nil {
		return Profile{}, err
	}
	if v := Validate(p); !v.Valid {
		return Profile{}, errs.Newf(errs.ErrKindConfig, "profile %q cannot be used: %s", name, v.Reason)
	}

	s.mu.Lock()
	changed := s.active != name
	s.active = name
	hooks := s.hooks
	s.mu.Unlock()

	if changed {
		runHooks(hooks)
	}
	s.log.With().Str("profile", name).Str("type", string(p.Type())).Logger().Info("active profile set")
	return p, nil
}

// Clear resets the active profile to none and invalidates cached
// connections.
func (s *Store) Clear() {
	s.mu.Lock()
	s.active = ""
	hooks := s.hooks
	s.mu.Unlock()

	runHooks(hooks)
	s.log.Info("active profile cleared")
}

// Active re-resolves the active profile. It fails with a config error when
// none is set, when the profile vanished from the files, or when it has
// lost its credentials since it was selected.
func (s *Store) Active() (Profile, Set, error) {
	name, ok := s.Current()
	if !ok {
		return Profile{}, Set{}, errs.New(errs.ErrKindConfig, "no active profile selected")
	}
	p, set, err := s.resolver.Lookup(name)
	if err != nil {
		return Profile{}, set, err
	}
	if v := Validate(p); !v.Valid {
		return Profile{}, set, errs.Newf(errs.ErrKindConfig, "profile %q cannot be used: %s", name, v.Reason)
	}
	return p, set, nil
}

func runHooks(hooks []func()) {
	for _, fn := range hooks {
		fn()
	}
}
