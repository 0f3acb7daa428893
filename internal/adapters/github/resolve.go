package github

import (
	"sort"
	"time"

	"github.com/okian/statuscard/internal/domain/model"
)

// repoInfo is the mode-independent view of a repository.
type repoInfo struct {
	Name          string
	PushedAt      time.Time
	Language      string
	HeadCommit    string
	LanguageBytes map[string]int64
}

// resolved holds the fields that are derived through fallback chains.
type resolved struct {
	RecentLanguage string
	TopLanguage    string
	LastPush       time.Time
	LastCommitHash string
}

// resolveFields applies the fallback chains, highest precedence first:
//
//	recent language  window aggregate -> model.DefaultLanguage
//	top language     topCandidates... -> recent language
//	last push        latest repository -> now
//	commit hash      latest repository head -> model.ZeroCommitHash
func resolveFields(aggregate string, topCandidates []string, repos []repoInfo, now time.Time) resolved {
	latest, ok := latestRepo(repos)

	r := resolved{
		RecentLanguage: firstNonEmpty(aggregate, model.DefaultLanguage),
		LastPush:       now,
		LastCommitHash: model.ZeroCommitHash,
	}
	r.TopLanguage = firstNonEmpty(append(topCandidates, r.RecentLanguage)...)
	if ok {
		if !latest.PushedAt.IsZero() {
			r.LastPush = latest.PushedAt
		}
		if latest.HeadCommit != "" {
			r.LastCommitHash = latest.HeadCommit
		}
	}
	return r
}

// latestRepo returns the most recently pushed repository.
func latestRepo(repos []repoInfo) (repoInfo, bool) {
	if len(repos) == 0 {
		return repoInfo{}, false
	}
	best := repos[0]
	for _, r := range repos[1:] {
		if r.PushedAt.After(best.PushedAt) {
			best = r
		}
	}
	return best, true
}

// languageByBytes sums language sizes over repositories pushed at or after
// cutoff and returns the largest.
func languageByBytes(repos []repoInfo, cutoff time.Time) string {
	totals := make(map[string]int64)
	for _, r := range repos {
		if r.PushedAt.Before(cutoff) {
			continue
		}
		for lang, size := range r.LanguageBytes {
			if lang != "" {
				totals[lang] += size
			}
		}
	}
	return argmax(totals)
}

// languageByCount counts the primary language of repositories pushed at or
// after cutoff and returns the most frequent.
func languageByCount(repos []repoInfo, cutoff time.Time) string {
	counts := make(map[string]int64)
	for _, r := range repos {
		if r.PushedAt.Before(cutoff) || r.Language == "" {
			continue
		}
		counts[r.Language]++
	}
	return argmax(counts)
}

// argmax picks the key with the largest value; ties go to the smaller name.
func argmax(m map[string]int64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := ""
	var bestVal int64
	for _, k := range keys {
		if best == "" || m[k] > bestVal {
			best, bestVal = k, m[k]
		}
	}
	return best
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
