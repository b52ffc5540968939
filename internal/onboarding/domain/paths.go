package domain

import "strings"

// Paths is the routing table for a single user type.
type Paths struct {
	// Namespace owns every page of the user type, e.g. "/employer".
	Namespace         string
	Dashboard         string
	OnboardingBase    string
	OnboardingDefault string

	// Confirmation stays reachable after onboarding is completed.
	Confirmation string

	// Steps are ordered onboarding step paths, step 1 first. Empty when the
	// flow keeps its own state client-side.
	Steps []string
}

// StepPath maps a 1-based step to its path, clamped to the table.
func (p Paths) StepPath(step int) string {
	if len(p.Steps) == 0 {
		return p.OnboardingDefault
	}
	switch {
	case step < 1:
		step = 1
	case step > len(p.Steps):
		step = len(p.Steps)
	}
	return p.Steps[step-1]
}

// InNamespace reports whether path is inside the user type's pages.
func (p Paths) InNamespace(path string) bool {
	return HasPathPrefix(path, p.Namespace)
}

// InOnboarding reports whether path is inside the onboarding flow.
func (p Paths) InOnboarding(path string) bool {
	return HasPathPrefix(path, p.OnboardingBase)
}

// PathTable maps user types to their routes.
type PathTable map[UserType]Paths

func (t PathTable) For(ut UserType) (Paths, bool) {
	p, ok := t[ut]
	return p, ok
}

// DefaultPathTable returns the production routes.
func DefaultPathTable() PathTable {
	return PathTable{
		UserTypeJobSeeker: {
			Namespace:         "/job-seeker",
			Dashboard:         "/job-seeker/dashboard",
			OnboardingBase:    "/job-seeker/onboarding",
			OnboardingDefault: "/job-seeker/onboarding/informasi-dasar",
			Confirmation:      "/job-seeker/onboarding/konfirmasi",
		},
		UserTypeEmployer: {
			Namespace:         "/employer",
			Dashboard:         "/employer/dashboard",
			OnboardingBase:    "/employer/onboarding",
			OnboardingDefault: "/employer/onboarding/informasi-perusahaan",
			Confirmation:      "/employer/onboarding/konfirmasi",
			Steps: []string{
				"/employer/onboarding/informasi-perusahaan",
				"/employer/onboarding/kehadiran-online",
				"/employer/onboarding/penanggung-jawab",
				"/employer/onboarding/konfirmasi",
			},
		},
	}
}

// HasPathPrefix matches prefix on segment boundaries, so "/employer" matches
// "/employer" and "/employer/x" but not "/employers".
func HasPathPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	if prefix == "/" {
		return strings.HasPrefix(path, "/")
	}
	prefix = strings.TrimSuffix(prefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
