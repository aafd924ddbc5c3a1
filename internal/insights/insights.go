// Package insights turns query results into Spanish business narratives.
// Successful results go through a chat completion; empty results and
// failed queries use fixed templates so the explanation path never
// depends on the model being reachable.
package insights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/consulta/consulta/internal/llm"
	"github.com/consulta/consulta/internal/observability"
	"github.com/consulta/consulta/internal/warehouse"
)

// Mode selects the depth of the generated narrative.
type Mode string

const (
	// ModeQuick produces a single concise paragraph.
	ModeQuick Mode = "quick"
	// ModePro produces a sectioned analysis of 200+ words.
	ModePro Mode = "pro"
)

// ParseMode validates a caller-supplied mode string.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModeQuick, ModePro:
		return Mode(value), nil
	default:
		return "", fmt.Errorf("invalid response mode: %q", value)
	}
}

const (
	quickSampleRows = 10
	proSampleRows   = 50
	errorExcerptLen = 200
)

const systemPrompt = `You are a business analyst for Alumimundo, Costa Rica's premier distributor of high-end construction finishes and fixtures.
Your role is to analyze SQL query results and provide clear, actionable business insights with specific numbers and recommendations.
Use markdown formatting for emphasis (**bold** for key metrics, bullet points for lists).
Focus on practical business impact and next steps that executives can act on immediately.

RESPOND IN SPANISH - All insights must be in Spanish (español) for the Alumimundo team in Costa Rica.`

const emptyResultNarrative = `No se encontraron datos que coincidan con tu consulta. Esto podría significar:
- No hay registros que cumplan con los criterios especificados
- El período de tiempo seleccionado no tiene actividad
- Los filtros son demasiado restrictivos

**Sugerencia:** Intenta ajustar tu pregunta con:
- Un rango de fechas más amplio
- Criterios de filtrado diferentes
- Verificar si los datos existen en la base de datos`

// Generator produces result narratives through a completion backend.
type Generator struct {
	completer   llm.Completer
	temperature float64
}

func NewGenerator(completer llm.Completer, temperature float64) *Generator {
	return &Generator{completer: completer, temperature: temperature}
}

// Generate returns the narrative for a successful query. Empty results
// short-circuit to a fixed template without calling the model. A failed
// or blank completion degrades to FallbackSummary rather than an error.
func (g *Generator) Generate(ctx context.Context, question, sqlQuery string, result warehouse.Result, mode Mode) string {
	if len(result.Rows) == 0 {
		return emptyResultNarrative
	}

	started := time.Now()
	completion, err := g.completer.Complete(ctx, llm.Request{
		System:      systemPrompt,
		User:        buildPrompt(question, sqlQuery, result, mode),
		Temperature: g.temperature,
	})
	if err != nil {
		return FallbackSummary(len(result.Rows), mode)
	}
	observability.ObserveCompletion("insights", time.Since(started))
	narrative := strings.TrimSpace(completion)
	if narrative == "" {
		return fmt.Sprintf("Se encontraron %d %s. Ver la tabla a continuación para más detalles.",
			len(result.Rows), pluralResultado(len(result.Rows)))
	}
	return narrative
}

// FallbackSummary is the narrative used when the completion call fails
// after a successful query.
func FallbackSummary(rowCount int, mode Mode) string {
	followUp := "Cambia a modo Pro para obtener insights empresariales detallados."
	if mode == ModePro {
		followUp = "Puedes descargar los resultados como Excel para un análisis más profundo."
	}
	return fmt.Sprintf(`## Resultados del Análisis

Se encontraron **%d** %s para tu consulta.

Los datos completos se muestran en la tabla a continuación. %s`, rowCount, pluralResultado(rowCount), followUp)
}

func pluralResultado(count int) string {
	if count == 1 {
		return "resultado"
	}
	return "resultados"
}

func buildPrompt(question, sqlQuery string, result warehouse.Result, mode Mode) string {
	sample := quickSampleRows
	if mode == ModePro {
		sample = proSampleRows
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pregunta del Usuario: %s\n\n", question)
	fmt.Fprintf(&b, "Consulta SQL Ejecutada:\n%s\n\n", sqlQuery)
	fmt.Fprintf(&b, "Resultados (%d filas):\n", len(result.Rows))
	fmt.Fprintf(&b, "Columnas: %s\n", strings.Join(result.Columns, ", "))
	b.WriteString("Datos:\n")
	for i, row := range result.Rows {
		if i >= sample {
			break
		}
		pairs := make([]string, 0, len(result.Columns))
		for j, column := range result.Columns {
			pairs = append(pairs, fmt.Sprintf("%s=%v", column, row[j]))
		}
		fmt.Fprintf(&b, "Fila %d: %s\n", i+1, strings.Join(pairs, ", "))
	}
	if len(result.Rows) > sample {
		fmt.Fprintf(&b, "\n... (%d filas más)\n", len(result.Rows)-sample)
	}

	if mode == ModePro {
		b.WriteString(proInstructions)
	} else {
		b.WriteString(quickInstructions)
	}
	return b.String()
}

const quickInstructions = `
Instrucciones:
Proporciona una respuesta BREVE y concisa en UN SOLO PÁRRAFO MÁXIMO (3-5 oraciones) EN ESPAÑOL. Enfócate en:
- El hallazgo más importante de los datos
- Un número o métrica clave (usa **negrita** markdown)
- Una recomendación o insight accionable

Usa formato markdown (negrita para números clave como **$125,450** o **23.5%**).
Sé directo, enfocado en el negocio, y habla como un ejecutivo resumiendo datos.

IMPORTANTE: Toda la respuesta debe estar en ESPAÑOL.`

const proInstructions = `
Instrucciones:
Debes proporcionar un ANÁLISIS DE NEGOCIO COMPLETO EN ESPAÑOL con la siguiente estructura OBLIGATORIA.

ESTRUCTURA OBLIGATORIA (Debes incluir LAS CUATRO secciones):

**📊 Hallazgos Clave**
- Identifica 3-5 patrones o tendencias principales en los datos
- Incluye números específicos, porcentajes y comparaciones (usa **negrita** para métricas)
- Destaca tanto hallazgos positivos como negativos
- Compara segmentos, categorías o períodos de tiempo

**💰 Impacto Financiero**
- Cuantifica el impacto empresarial en dólares, ingresos o términos de costos
- Calcula márgenes, rentabilidad o métricas de eficiencia cuando sea aplicable
- Compara rendimiento entre segmentos/categorías si es relevante
- Muestra tendencias año tras año o mes tras mes si es aplicable

**⚠️ Áreas de Riesgo y Oportunidades**
- Identifica 2-3 áreas problemáticas que necesitan atención inmediata
- Cuantifica el riesgo o costo de oportunidad con números específicos
- Destaca segmentos con bajo rendimiento u oportunidades perdidas
- Muestra la brecha entre rendimiento actual y potencial

**🎯 Recomendaciones Accionables**
- Proporciona 3-5 pasos de acción ESPECÍFICOS
- Cada recomendación debe ser concreta (no vaga como "mejorar el rendimiento")
- Incluye impacto esperado o métricas de éxito para cada recomendación
- Prioriza las recomendaciones por impacto empresarial potencial

REQUISITOS MÍNIMOS:
- Longitud total de la respuesta: 200+ palabras (esto NO ES NEGOCIABLE)
- Incluir al menos 5 números o métricas específicas con contexto
- Proporcionar al menos 3 recomendaciones concretas y accionables
- Usar viñetas y formato markdown (**negrita**, encabezados)
- Incluir porcentajes, montos en dólares o métricas comparativas
- TODO EN ESPAÑOL

CONTEXTO DE NEGOCIO ALUMIMUNDO:
- Distribuidor premium de acabados de construcción en Costa Rica
- Marcas: KOHLER (exclusivo), Schlage, Steelcraft, Kallista
- Clientes: Arquitectos, diseñadores, desarrolladores, contratistas
- Tipos de proyecto: Residencial, comercial, hotelero, institucional, salud, educativo
- Mercado objetivo: Segmento premium/lujo en construcción
- Expansión regional: Costa Rica actualmente, expansión en Centroamérica planificada

IMPORTANTE: TODA la respuesta debe estar en ESPAÑOL para el equipo de Alumimundo en Costa Rica.`

// GenerateError maps a failed query to a fixed Spanish explanation. It
// never calls the model, so the error path stays deterministic.
func GenerateError(errorText string) string {
	switch {
	case strings.Contains(errorText, "syntax error") || strings.Contains(errorText, "SQL Error"):
		return fmt.Sprintf(`## ⚠️ Error en la Consulta

Generé una consulta SQL, pero hubo un error de sintaxis:

`+"```"+`
%s
`+"```"+`

**Esto podría deberse a:**
- Nombres de tabla o columna incorrectos
- Sintaxis SQL inválida
- Condiciones JOIN faltantes

**Qué intentar:**
- Reformular tu pregunta para ser más específico
- Preguntar sobre datos diferentes (ej. "muestra los proyectos" en lugar de "analiza el comportamiento del proyecto")
- Especificar un rango de fechas o filtro (ej. "últimos 30 días", "para proyectos residenciales")`, truncateError(errorText))

	case strings.Contains(errorText, "does not exist") || strings.Contains(errorText, "relation"):
		return `## ⚠️ Tabla o Columna No Encontrada

La consulta hizo referencia a una tabla o columna que no existe en la base de datos de Alumimundo.

**Áreas de datos disponibles:**
- **Proyectos** - Gestión de proyectos de construcción (residencial, comercial, hotelero)
- **Productos** - Catálogo completo (KOHLER, Schlage, Steelcraft, Kallista)
- **Especificaciones** - Especificaciones de productos por proyecto con precios
- **Inventario** - Niveles de stock, movimientos y asignaciones
- **Calidad** - Inspecciones de instalación con análisis CV
- **Proveedores** - Fabricantes y distribuidores
- **Diseño** - Proyectos de diseño con IA y recomendaciones
- **Usuarios** - Gestión de usuarios y actividad

**Intenta preguntar sobre:** "Muestra los 10 proyectos principales por valor" o "Inventario de productos KOHLER"`

	case strings.Contains(errorText, "permission denied") || strings.Contains(errorText, "read-only"):
		return `## ⚠️ Permiso Denegado

Esta base de datos es de solo lectura. Solo se permiten consultas SELECT para análisis de datos.

**Lo que puedes hacer:**
- Consultar y analizar cualquier dato de Alumimundo
- Generar reportes e insights
- Exportar datos a Excel

**Lo que no está permitido:**
- Modificar datos (INSERT, UPDATE, DELETE)
- Crear o alterar tablas
- Operaciones administrativas`

	case strings.Contains(errorText, "warehouse dsn") || strings.Contains(errorText, "not configured"):
		return `## ⚠️ Error de Conexión a Base de Datos

La base de datos de analítica SQL no está configurada. Por favor contacta a tu administrador.

**Lo que se necesita:**
- Conexión a base de datos PostgreSQL (CONSULTA_WAREHOUSE_DSN)
- Datos de analítica de Alumimundo restaurados

Mientras tanto, puedo ayudar con:
- Información general sobre productos y proyectos
- Consultas sobre inventario y especificaciones
- Información general de Alumimundo`

	default:
		return fmt.Sprintf(`## ⚠️ Algo Salió Mal

Encontré un error al procesar tu pregunta:

`+"```"+`
%s
`+"```"+`

**Por favor intenta:**
- Reformular tu pregunta
- Ser más específico sobre qué datos necesitas
- Preguntar sobre un tema diferente
- Usar criterios o filtros más simples

**Ejemplos de preguntas que puedo responder:**
- "Muestra los proyectos más importantes por presupuesto"
- "¿Cuál es el inventario actual de productos KOHLER?"
- "¿Qué proveedores tienen los mejores tiempos de entrega?"
- "Proyectos completados en los últimos 3 meses"`, truncateError(errorText))
	}
}

func truncateError(text string) string {
	if len(text) <= errorExcerptLen {
		return text
	}
	return text[:errorExcerptLen]
}
