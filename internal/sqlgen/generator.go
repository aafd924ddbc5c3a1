// Package sqlgen turns natural language questions into candidate SQL
// statements using a single chat completion grounded on the live
// warehouse schema.
package sqlgen

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/consulta/consulta/internal/llm"
	"github.com/consulta/consulta/internal/observability"
)

// GenerationError reports that no usable SQL statement could be produced
// for a question. The cause is preserved for logging.
type GenerationError struct {
	Question string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("sqlgen: generating SQL for question %q: %v", e.Question, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// SchemaSource supplies the textual schema description embedded into the
// system prompt. Implementations may cache aggressively.
type SchemaSource interface {
	Description(ctx context.Context) (string, error)
}

// Generator produces one SQL statement per question. It never validates
// the statement; safety checks belong to the sanitization layer.
type Generator struct {
	completer   llm.Completer
	schema      SchemaSource
	temperature float64
}

func NewGenerator(completer llm.Completer, schema SchemaSource, temperature float64) *Generator {
	return &Generator{completer: completer, schema: schema, temperature: temperature}
}

const systemPromptTemplate = `You are a SQL expert for Alumimundo, Costa Rica's premier distributor of high-end construction finishes and fixtures.

DATABASE SCHEMA:
%s

YOUR TASK:
You are a SQL generation specialist. Generate a single, optimized PostgreSQL query to answer the user's question.

RESPONSE FORMAT:
Return ONLY the SQL query, nothing else. No explanations, no markdown, no additional text.
The query should be ready to execute directly.

REQUIREMENTS:
1. Generate valid PostgreSQL SQL
2. Use only tables and columns from the schema above
3. Include appropriate WHERE clauses for filtering
4. Use proper JOIN syntax when needed
5. Order results logically (usually by the main metric DESC)
6. Limit results to 100 rows maximum
7. Use descriptive column aliases for clarity

SQL BEST PRACTICES:
- Always use LIMIT 100 (will be added automatically if missing)
- Use proper JOIN conditions when combining tables
- For percentages: multiply by 100.0 for decimal calculation
- Group by actual column names, not aliases
- Use CAST or :: for type conversions
- For date filtering: Use DATE() or proper timestamp comparison
- Use Spanish-friendly aliases when appropriate (e.g., "total_proyectos", "costo_promedio")

ALUMIMUNDO BUSINESS CONTEXT:
- Project types: RESIDENTIAL, COMMERCIAL, HOSPITALITY, INSTITUTIONAL, HEALTHCARE, EDUCATIONAL
- Project status: PLANNING, SPECIFICATION, PURCHASING, IN_PROGRESS, INSTALLATION, QUALITY_CHECK, COMPLETED, ON_HOLD, CANCELLED
- Product brands: KOHLER (primary), Schlage, Steelcraft, Kallista
- Quality check types: PRE_INSTALLATION, DURING_INSTALLATION, POST_INSTALLATION, FINAL_INSPECTION, WARRANTY_VALIDATION
- Design project budget ranges: LOW, MEDIUM, HIGH, LUXURY
- User roles: ADMIN, MANAGER, TECHNICAL_ADVISOR, ARCHITECT, INSTALLER, USER

Now generate the SQL query for the user's question:`

// Generate returns one raw SQL statement for the question. Markdown
// fences and leading labels emitted by the model are stripped before
// the statement is returned.
func (g *Generator) Generate(ctx context.Context, question string) (string, error) {
	schemaText, err := g.schema.Description(ctx)
	if err != nil {
		return "", &GenerationError{Question: question, Err: fmt.Errorf("loading schema: %w", err)}
	}

	started := time.Now()
	completion, err := g.completer.Complete(ctx, llm.Request{
		System:      fmt.Sprintf(systemPromptTemplate, schemaText),
		User:        question,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", &GenerationError{Question: question, Err: err}
	}
	observability.ObserveCompletion("sql_generation", time.Since(started))

	statement := cleanStatement(completion)
	if statement == "" {
		return "", &GenerationError{Question: question, Err: fmt.Errorf("model returned an empty statement")}
	}
	return statement, nil
}

var sqlLabelPattern = regexp.MustCompile(`(?i)^sql:\s*`)

func cleanStatement(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```sql", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = sqlLabelPattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}
