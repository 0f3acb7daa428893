package svgcard

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/statuscard/internal/domain/activity"
	"github.com/okian/statuscard/internal/domain/model"
)

// Region ids in the card template.
const (
	RegionRoleName     = "role_name"
	RegionRoleDesc     = "role_desc"
	RegionStreakCount  = "streak_count"
	RegionStreakRange  = "streak_range"
	RegionTotalCommits = "total_commits"
	RegionMonthCommits = "month_commits"
	RegionLangMain     = "lang_main"
	RegionLangRecent   = "lang_recent"
	RegionCommitHash   = "commit_hash"
)

// IconPrefix prefixes a role key to form its icon id.
const IconPrefix = "icon_"

const (
	shortHashLen = 7
	shownRule    = "display: inline !important; visibility: visible !important; opacity: 1 !important;"
	hiddenRule   = "display: none !important; visibility: hidden !important; opacity: 0 !important;"
	closingTag   = "</svg>"
)

// Regions lists every region id in render order.
func Regions() []string {
	return []string{
		RegionRoleName, RegionRoleDesc, RegionStreakCount, RegionStreakRange,
		RegionTotalCommits, RegionMonthCommits, RegionLangMain, RegionLangRecent,
		RegionCommitHash,
	}
}

// regionKinds are the elements that can carry a region id.
var regionKinds = []string{"text", "tspan"}

var regionPatterns = func() map[string][]*regexp.Regexp {
	out := make(map[string][]*regexp.Regexp)
	for _, id := range Regions() {
		out[id] = regionPattern(id)
	}
	return out
}()

// regionPattern returns one matcher per element kind for the region id.
// Each captures the opening tag and the closing tag of the same kind, so a
// nested tspan inside a text region stays inside the replaced content.
func regionPattern(id string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(regionKinds))
	for _, kind := range regionKinds {
		out = append(out, regexp.MustCompile(
			`(<`+kind+`\b[^>]*\sid="`+regexp.QuoteMeta(id)+`"[^>]*>)[\s\S]*?(</`+kind+`>)`))
	}
	return out
}

func patternsFor(id string) []*regexp.Regexp {
	if res, ok := regionPatterns[id]; ok {
		return res
	}
	return regionPattern(id)
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Field is a region id and the text it receives.
type Field struct {
	ID    string
	Value string
}

// Fields formats the card values for every region.
func Fields(stats model.Stats, role model.Role, streak model.Streak, monthTotal int) []Field {
	return []Field{
		{RegionRoleName, role.Name},
		{RegionRoleDesc, `"` + role.Description + `"`},
		{RegionStreakCount, strconv.Itoa(streak.Days)},
		{RegionStreakRange, streak.Start + " - " + streak.End},
		{RegionTotalCommits, strconv.Itoa(stats.TotalCommits)},
		{RegionMonthCommits, strconv.Itoa(monthTotal)},
		{RegionLangMain, stats.TopLanguage},
		{RegionLangRecent, stats.RecentLanguage},
		{RegionCommitHash, "#" + ShortHash(stats.LastCommitHash)},
	}
}

// ShortHash truncates a commit hash to seven characters.
func ShortHash(hash string) string {
	if len(hash) <= shortHashLen {
		return hash
	}
	return hash[:shortHashLen]
}

// Renderer fills templates.
type Renderer struct {
	strict   bool
	roleKeys []string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStrictRegions makes a region or closing tag missing from the template
// an error instead of a skipped substitution.
func WithStrictRegions(strict bool) Option {
	return func(r *Renderer) { r.strict = strict }
}

// WithRoleKeys sets the role keys whose icons the style block toggles.
func WithRoleKeys(keys ...string) Option {
	return func(r *Renderer) {
		if len(keys) > 0 {
			r.roleKeys = keys
		}
	}
}

// NewRenderer builds a renderer toggling an icon per activity role.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{}
	for _, role := range activity.Roles() {
		r.roleKeys = append(r.roleKeys, role.Key)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render substitutes the card values into tpl and appends the icon style
// block. The template itself is never modified.
func (r *Renderer) Render(tpl Template, stats model.Stats, role model.Role, streak model.Streak, monthTotal int) (string, error) {
	const op = "svgcard.render"

	doc := tpl.String()
	var missing []string
	for _, f := range Fields(stats, role, streak, monthTotal) {
		var ok bool
		doc, ok = setText(doc, f.ID, f.Value)
		if !ok {
			missing = append(missing, f.ID)
		}
	}

	idx := strings.LastIndex(doc, closingTag)
	if idx < 0 {
		missing = append(missing, closingTag)
	} else {
		doc = doc[:idx] + r.styleBlock(role.Key) + doc[idx:]
	}

	if r.strict && len(missing) > 0 {
		return "", model.WrapKind(op, model.ErrRegionMissing,
			fmt.Errorf("%s: %s", tpl.Source(), strings.Join(missing, ", ")))
	}
	return doc, nil
}

func (r *Renderer) styleBlock(active string) string {
	var b strings.Builder
	b.WriteString("<style>")
	b.WriteString("#" + RegionRoleName + ", #" + RegionRoleDesc + " { text-anchor: middle !important; } ")
	for _, key := range r.roleKeys {
		rule := hiddenRule
		if key == active {
			rule = shownRule
		}
		fmt.Fprintf(&b, "#%s%s { %s } ", IconPrefix, key, rule)
	}
	b.WriteString("</style>")
	return b.String()
}

// setText replaces the inner text of every region with the given id.
func setText(doc, id, value string) (string, bool) {
	escaped := textEscaper.Replace(value)
	found := false
	for _, re := range patternsFor(id) {
		if !re.MatchString(doc) {
			continue
		}
		found = true
		doc = re.ReplaceAllStringFunc(doc, func(m string) string {
			sub := re.FindStringSubmatch(m)
			return sub[1] + escaped + sub[2]
		})
	}
	return doc, found
}

// ErrNoRegion is returned by Extract when the id is absent.
var ErrNoRegion = errors.New("region not found")

// Extract returns the unescaped inner text of the first region with the id.
func Extract(doc, id string) (string, error) {
	var first []int
	for _, re := range patternsFor(id) {
		loc := re.FindStringSubmatchIndex(doc)
		if loc != nil && (first == nil || loc[0] < first[0]) {
			first = loc
		}
	}
	if first == nil {
		return "", fmt.Errorf("%w: %s", ErrNoRegion, id)
	}
	return html.UnescapeString(doc[first[3]:first[4]]), nil
}
