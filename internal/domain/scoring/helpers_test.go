package scoring_test

import "github.com/okian/tribescore/internal/domain/model"

func hit(v bool) *bool { return &v }

func bet(v int) *int { return &v }

// tracked returns eliminations covering episodes 1..n with the given
// per-episode lists filled in.
func tracked(n int, out map[int][]string) model.Eliminations {
	elims := make(model.Eliminations, n+1)
	for ep := 1; ep <= n; ep++ {
		elims[ep] = out[ep]
	}
	return elims
}

func set(names ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}
