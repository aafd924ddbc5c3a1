// Package classifier scores a natural-language analytics question and decides
// whether it can be answered on the single-call fast path or needs the full
// multi-step agent. Pure and deterministic: no I/O, no model calls.
package classifier

import (
	"fmt"
	"regexp"
	"strings"
)

type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Route is the tagged routing decision. Only RouteFastPath is executed today;
// RouteFullAgent is reserved for a multi-step agent.
type Route string

const (
	RouteFastPath  Route = "fast_path"
	RouteFullAgent Route = "full_agent"
)

type Classification struct {
	Complexity      Complexity `json:"complexity"`
	Route           Route      `json:"route"`
	UseFastPath     bool       `json:"use_fast_path"`
	Reason          string     `json:"reason"`
	EstimatedTables int        `json:"estimated_tables"`
	Confidence      float64    `json:"confidence"`
}

// Domain entities whose mention approximates how many tables the generated
// query will touch. Each group holds the English and Spanish forms of one
// data area and counts at most once.
var entityGroups = [][]string{
	{"project", "proyecto"},
	{"specification", "especificación"},
	{"product", "producto"},
	{"quality", "calidad"},
	{"document", "documento"},
	{"inventory", "inventario"},
	{"provider", "proveedor"},
	{"area", "área"},
	{"design", "diseño"},
	{"image", "imagen"},
	{"movement", "movimiento"},
	{"allocation", "asignación"},
	{"user", "usuario"},
	{"activity", "actividad"},
}

var analyticalTerms = []string{
	"correlation", "correlación", "trend", "tendencia", "pattern", "patrón",
	"predict", "predecir", "forecast", "pronóstico", "regression", "regresión",
	"analysis", "análisis", "statistical", "estadístic", "variance", "varianza",
}

var connectiveWords = []string{
	"and", "or", "but", "except", "excluding", "where", "if", "when",
	"y", "o", "pero", "excepto", "donde", "si", "cuando",
}

var aggregationTerms = []string{
	"total", "sum", "count", "average", "avg", "max", "min",
	"suma", "promedio", "máximo", "mínimo", "conteo",
}

var (
	listingPattern    = regexp.MustCompile(`^(show|list|display|get|find|muestra|lista|encuentra|cuáles?|qué)\s+(me\s+)?(all\s+)?(the\s+)?`)
	directFactPattern = regexp.MustCompile(`^(what|qué|cuál)\s+(is|are|our|my|es|son)`)
	comparisonPattern = regexp.MustCompile(`^(compare|compara|comparar)\s+\w+\s+(by|across|between|por|entre)`)
	topNPattern       = regexp.MustCompile(`\b(top|bottom|best|worst|mejores|peores|principales)\s+\d+\b`)
	timeSeriesPattern = regexp.MustCompile(`\b(trend|over time|monthly|quarterly|year[- ]over[- ]year|seasonality|tendencia|mensual|trimestral|temporal)\b`)
)

var simplePatterns = []*regexp.Regexp{
	regexp.MustCompile(`what is (our|the) .* (lifetime value|ltv|clv|valor)`),
	regexp.MustCompile(`compare .* (performance|rates?|metrics?|rendimiento|tasas?)`),
	regexp.MustCompile(`show .* (top|highest|lowest|mejores|principales|mayores|menores) \d+`),
	regexp.MustCompile(`which .* have .* (highest|lowest|most|least|mayores|menores|más|menos)`),
	regexp.MustCompile(`what (percentage|percent|%|porcentaje) of`),
	regexp.MustCompile(`how many .* (are|were|have|cuántos?|hay)`),
	regexp.MustCompile(`list .* by (date|amount|volume|revenue|fecha|cantidad|volumen)`),
	regexp.MustCompile(`cuáles? .* (productos|proyectos|proveedores)`),
	regexp.MustCompile(`muestra .* (inventario|stock|existencias)`),
}

var complexPatterns = []*regexp.Regexp{
	regexp.MustCompile(`why|how come|what causes|what explains|por qué|cómo es que|qué causa`),
	regexp.MustCompile(`recommend|suggest|should (i|we)|recomienda|sugiere|debería`),
	regexp.MustCompile(`compare .* across .* considering .*`),
	regexp.MustCompile(`taking into account|factoring in|considering|tomando en cuenta|considerando`),
	regexp.MustCompile(`breakdown .* by .* and .* and|desglose .* por .* y .* y`),
}

// Canonical quick questions always answered on the fast path.
var knownQuickQuestions = []string{
	"productos por debajo del punto de reorden",
	"rotación de inventario",
	"proveedores mejor tiempo entrega",
	"inventario kohler",
	"valor promedio proyecto",
	"proyectos completados vs retrasados",
	"productos especificados proyectos",
	"presupuesto vs costo real",
	"tasa éxito inspecciones calidad",
	"defectos comunes instalaciones",
	"tiempo promedio especificación instalación",
	"productos problemas calidad",
	"tasa aceptación recomendaciones ai",
	"costos estimados vs reales diseño",
	"categorías producto rentables",
	"provincias mayor demanda",
}

var punctuationPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// features holds everything the scoring rules look at, computed once.
type features struct {
	lower       string
	wordCount   int
	entityCount int
	connectives int
}

// rule is one weighted heuristic: if applies returns true the weight is added
// to the running complexity score and the reason is recorded.
type rule struct {
	reason  string
	weight  float64
	applies func(f features) bool
}

var rules = []rule{
	{"simple listing query", -1, func(f features) bool {
		return listingPattern.MatchString(f.lower)
	}},
	{"direct fact query", -1, func(f features) bool {
		return directFactPattern.MatchString(f.lower)
	}},
	{"comparison query", 0, func(f features) bool {
		return comparisonPattern.MatchString(f.lower)
	}},
	{"top N query", -0.5, func(f features) bool {
		return topNPattern.MatchString(f.lower)
	}},
	{"3+ tables likely involved", 2, func(f features) bool {
		return f.entityCount >= 3
	}},
	{"2 tables likely involved", 0.5, func(f features) bool {
		return f.entityCount == 2
	}},
	{"advanced analytics required", 2, func(f features) bool {
		return containsAny(f.lower, analyticalTerms)
	}},
	{"time-series analysis", 1, func(f features) bool {
		return timeSeriesPattern.MatchString(f.lower)
	}},
	{"multiple conditions", 1.5, func(f features) bool {
		return f.connectives >= 3
	}},
	{"simple aggregation", -0.5, func(f features) bool {
		return containsAny(f.lower, aggregationTerms)
	}},
	{"matches known simple pattern", -1, func(f features) bool {
		return matchesAny(f.lower, simplePatterns)
	}},
	{"requires reasoning or recommendations", 2, func(f features) bool {
		return matchesAny(f.lower, complexPatterns)
	}},
	{"long, detailed question", 1, func(f features) bool {
		return f.wordCount > 20
	}},
	{"short, focused question", -0.5, func(f features) bool {
		return f.wordCount < 8
	}},
}

// Classify folds the ordered rule list over the question and maps the
// resulting score to a complexity tier. A curated quick-question list is
// checked last and overrides the score entirely.
func Classify(question string) Classification {
	f := extractFeatures(question)

	score := 0.0
	reasons := make([]string, 0, 4)
	for _, r := range rules {
		if !r.applies(f) {
			continue
		}
		score += r.weight
		reasons = append(reasons, r.reason)
	}

	estimatedTables := f.entityCount
	if estimatedTables < 1 {
		estimatedTables = 1
	}

	var (
		complexity Complexity
		route      Route
		confidence float64
	)
	switch {
	case score <= -1:
		complexity = ComplexitySimple
		route = RouteFastPath
		confidence = 0.85
	case score <= 1:
		complexity = ComplexityModerate
		confidence = 0.70
		route = RouteFullAgent
		if estimatedTables <= 2 {
			route = RouteFastPath
		}
	default:
		complexity = ComplexityComplex
		route = RouteFullAgent
		confidence = 0.80
	}

	if normalized := normalize(f.lower); matchesQuickQuestion(normalized) {
		complexity = ComplexitySimple
		route = RouteFastPath
		confidence = 0.95
		reasons = append([]string{"matches predefined quick question"}, reasons...)
	}

	return Classification{
		Complexity:      complexity,
		Route:           route,
		UseFastPath:     route == RouteFastPath,
		Reason:          strings.Join(reasons, "; "),
		EstimatedTables: estimatedTables,
		Confidence:      confidence,
	}
}

func extractFeatures(question string) features {
	lower := strings.ToLower(strings.TrimSpace(question))
	words := strings.Fields(lower)

	entityCount := 0
	for _, group := range entityGroups {
		if containsAny(lower, group) {
			entityCount++
		}
	}

	tokens := make(map[string]struct{}, len(words))
	for _, word := range words {
		tokens[strings.Trim(word, ",.;:¿?¡!()\"'")] = struct{}{}
	}
	connectives := 0
	for _, word := range connectiveWords {
		if _, ok := tokens[word]; ok {
			connectives++
		}
	}

	return features{
		lower:       lower,
		wordCount:   len(words),
		entityCount: entityCount,
		connectives: connectives,
	}
}

func normalize(lower string) string {
	return strings.TrimSpace(punctuationPattern.ReplaceAllString(lower, ""))
}

func matchesQuickQuestion(normalized string) bool {
	for _, known := range knownQuickQuestions {
		if strings.Contains(normalized, known) {
			return true
		}
	}
	return false
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

func (c Classification) String() string {
	return fmt.Sprintf("%s route=%s tables=%d confidence=%.2f", c.Complexity, c.Route, c.EstimatedTables, c.Confidence)
}
