package services

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"team-rsvp/config"
	"team-rsvp/models"

	ics "github.com/arran4/golang-ical"
	"github.com/gosimple/slug"
)

var (
	vsPattern        = regexp.MustCompile(`(?i)\bvs\b\.?`)
	fieldCodePattern = regexp.MustCompile(`^([A-Za-z])\d$`)
	textUnescaper    = strings.NewReplacer(`\\`, `\`, `\,`, `,`, `\;`, `;`, `\n`, "\n", `\N`, "\n")
)

type CalendarParser struct {
	Rules config.VenueRules
}

func NewCalendarParser(rules config.VenueRules) *CalendarParser {
	return &CalendarParser{Rules: rules}
}

// Parse decodes an iCalendar document into games. Empty input is not an error.
// Events without a uid or a start time are skipped. Games come back without an ID;
// the store assigns one on first insert.
func (p *CalendarParser) Parse(raw string) ([]models.Game, error) {
	if strings.TrimSpace(raw) == "" {
		return []models.Game{}, nil
	}

	cal, err := ics.ParseCalendar(strings.NewReader(raw))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	events := cal.Events()
	games := make([]models.Game, 0, len(events))
	for _, ev := range events {
		game, ok := p.toGame(ev)
		if !ok {
			continue
		}
		games = append(games, game)
	}

	return games, nil
}

func (p *CalendarParser) toGame(ev *ics.VEvent) (models.Game, bool) {
	uid := strings.TrimSpace(ev.Id())
	if uid == "" {
		return models.Game{}, false
	}

	start, err := ev.GetStartAt()
	if err != nil || start.IsZero() {
		return models.Game{}, false
	}

	name := propertyText(ev, ics.ComponentPropertySummary)
	result, score := ExtractResult(name)

	return models.Game{
		EventUID:  uid,
		Name:      name,
		StartTime: start,
		Location:  propertyText(ev, ics.ComponentPropertyLocation),
		Opponent:  Opponent(name),
		Slug:      slug.Make(start.Format("2006-01-02") + " " + CleanName(name, p.Rules)),
		Result:    result,
		Score:     score,
	}, true
}

func propertyText(ev *ics.VEvent, prop ics.ComponentProperty) string {
	p := ev.GetProperty(prop)
	if p == nil {
		return ""
	}
	value := p.Value
	if strings.Contains(value, `\`) {
		value = textUnescaper.Replace(value)
	}
	return strings.TrimSpace(value)
}

func splitOnVs(name string) (before, after string, ok bool) {
	loc := vsPattern.FindStringIndex(name)
	if loc == nil {
		return "", "", false
	}
	return name[:loc[0]], name[loc[1]:], true
}

// ParseGameResult reads a result marker such as "W 5-2 vs Rovers" out of a game name
// and renders it as "Win 5-2". Names without a marker yield "".
func ParseGameResult(name string) string {
	result, score := ExtractResult(name)
	if result == nil {
		return ""
	}
	if score == nil {
		return string(*result)
	}
	return string(*result) + " " + *score
}

// ExtractResult is ParseGameResult split into the stored game fields.
// Score is nil when the marker carries no score.
func ExtractResult(name string) (*models.GameResult, *string) {
	before, _, ok := splitOnVs(name)
	if !ok {
		return nil, nil
	}

	before = strings.TrimSpace(before)
	if before == "" {
		return nil, nil
	}

	var result models.GameResult
	switch before[0] {
	case 'W':
		result = models.GameResultWin
	case 'L':
		result = models.GameResultLoss
	default:
		return nil, nil
	}

	// the marker must be its own token or run straight into the score ("W3-1")
	rest := before[1:]
	if rest != "" {
		next, _ := utf8.DecodeRuneInString(rest)
		if next != ' ' && next != '\t' && (next < '0' || next > '9') {
			return nil, nil
		}
	}

	score := strings.TrimSpace(rest)
	if score == "" {
		return &result, nil
	}
	return &result, &score
}

// Opponent is the trimmed text after the first "vs", or "" when there is none.
func Opponent(name string) string {
	_, after, ok := splitOnVs(name)
	if !ok {
		return ""
	}
	return strings.TrimSpace(after)
}

// CleanName strips the venue prefix some feeds put in front of every summary.
func CleanName(name string, rules config.VenueRules) string {
	name = strings.TrimSpace(name)
	if rules.Prefix != "" {
		name = strings.TrimPrefix(name, rules.Prefix)
	}
	return strings.TrimSpace(name)
}

// CleanLocation splits a feed location into the field designation and the street address.
// "Soccerdome (Webster Groves) on A1 - 1 Soccer Park Rd Fenton MO 63026" becomes
// ("A", "1 Soccer Park Rd Fenton MO 63026"). Without the street marker the cleaned text is the field.
func CleanLocation(location string, rules config.VenueRules) (field, address string) {
	text := strings.TrimSpace(location)
	if rules.Prefix != "" {
		text = strings.TrimPrefix(text, rules.Prefix)
		text = strings.TrimPrefix(text, strings.TrimSpace(rules.Prefix))
	}
	text = strings.TrimSpace(text)

	idx := -1
	if rules.StreetMarker != "" {
		idx = strings.Index(text, rules.StreetMarker)
	}
	if idx < 0 {
		return normaliseField(text), ""
	}

	start := idx - rules.Lookback
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}

	return normaliseField(text[:start]), strings.TrimSpace(text[start:])
}

func normaliseField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, " -–")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(strings.ToLower(s), "on ") {
		s = strings.TrimSpace(s[3:])
	}

	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return ""
	}
	last := tokens[len(tokens)-1]
	if m := fieldCodePattern.FindStringSubmatch(last); m != nil {
		tokens[len(tokens)-1] = m[1]
	}
	return strings.Join(tokens, " ")
}

// GameDay is the calendar date of the game's start as seen in loc (UTC when nil),
// returned as midnight UTC so that day differences are whole days across DST changes.
func GameDay(g models.Game, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := g.StartTime.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
