package querysql

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/enquinity/pdquery/internal/dialect"
	"github.com/enquinity/pdquery/internal/model"
	"github.com/enquinity/pdquery/internal/queryir"
	"github.com/enquinity/pdquery/internal/tagtmpl"
)

// Default statement templates. Bracketed literals disappear together with
// an empty placeholder.
const (
	DefaultSelectTemplate = "SELECT %(columns) FROM %(tables) [WHERE]%(where) [GROUP BY]%(groupBy) [HAVING]%(having) [ORDER BY]%(orderBy)"
	DefaultCountTemplate  = "SELECT %(columns) FROM %(tables) [WHERE]%(where)"
	DefaultUpdateTemplate = "UPDATE %(tables) SET %(set) [WHERE]%(where)"
	DefaultDeleteTemplate = "DELETE FROM %(tables) [WHERE]%(where)"

	// DefaultCountAlias names the column of a count statement.
	DefaultCountAlias = "count"
)

// Compiler renders query specs for one entity as SQL text in one dialect.
//
// A Compiler is immutable after construction and safe for concurrent use.
type Compiler struct {
	entity  string
	model   model.Model
	dialect dialect.Dialect

	complex    map[string]string
	params     map[string]any
	countAlias string

	selectTemplate string
	countTemplate  string
	updateTemplate string
	deleteTemplate string
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithComplexField maps a field name to a raw SQL expression. The
// expression is used verbatim in select lists, conditions (parenthesized),
// ordering and grouping.
func WithComplexField(field, expr string) Option {
	return func(c *Compiler) { c.complex[field] = expr }
}

// WithSelectTemplate replaces DefaultSelectTemplate.
func WithSelectTemplate(tpl string) Option {
	return func(c *Compiler) { c.selectTemplate = tpl }
}

// WithCountTemplate replaces DefaultCountTemplate.
func WithCountTemplate(tpl string) Option {
	return func(c *Compiler) { c.countTemplate = tpl }
}

// WithUpdateTemplate replaces DefaultUpdateTemplate.
func WithUpdateTemplate(tpl string) Option {
	return func(c *Compiler) { c.updateTemplate = tpl }
}

// WithDeleteTemplate replaces DefaultDeleteTemplate.
func WithDeleteTemplate(tpl string) Option {
	return func(c *Compiler) { c.deleteTemplate = tpl }
}

// WithCountAlias names the count column. Default: "count".
func WithCountAlias(alias string) Option {
	return func(c *Compiler) { c.countAlias = alias }
}

// WithTemplateParams supplies the values of %(param:name[,type]) tags.
func WithTemplateParams(params map[string]any) Option {
	return func(c *Compiler) { maps.Copy(c.params, params) }
}

// NewCompiler creates a compiler for entity.
func NewCompiler(entity string, m model.Model, d dialect.Dialect, opts ...Option) *Compiler {
	c := &Compiler{
		entity:         entity,
		model:          m,
		dialect:        d,
		complex:        make(map[string]string),
		params:         make(map[string]any),
		countAlias:     DefaultCountAlias,
		selectTemplate: DefaultSelectTemplate,
		countTemplate:  DefaultCountTemplate,
		updateTemplate: DefaultUpdateTemplate,
		deleteTemplate: DefaultDeleteTemplate,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Entity returns the entity the compiler renders statements for.
func (c *Compiler) Entity() string { return c.entity }

// Model returns the entity model.
func (c *Compiler) Model() model.Model { return c.model }

// Dialect returns the SQL dialect.
func (c *Compiler) Dialect() dialect.Dialect { return c.dialect }

// tagSet lists the placeholders a statement kind understands, besides the
// simple tags every kind accepts.
var tagSet = map[string][]string{
	"select": {"columns", "tables", "where", "groupBy", "having", "orderBy"},
	"count":  {"columns", "tables", "where"},
	"update": {"tables", "set", "where"},
	"delete": {"tables", "where"},
}

var simpleTags = []string{"tblalias", "field", "whereParam", "param"}

// statement carries the state of one rendering.
type statement struct {
	c     *Compiler
	kind  string
	plan  *Plan
	where *whereCompiler
	tags  *tagtmpl.Replacer
}

func (c *Compiler) newStatement(kind, template string, relations []string) (*statement, error) {
	if err := checkTemplate(kind, template); err != nil {
		return nil, err
	}
	plan, err := ResolveRelations(c.model, c.entity, relations)
	if err != nil {
		return nil, err
	}
	return &statement{
		c:     c,
		kind:  kind,
		plan:  plan,
		where: newWhereCompiler(c),
		tags:  tagtmpl.New(template),
	}, nil
}

func checkTemplate(kind, template string) error {
	allowed := append(append([]string(nil), tagSet[kind]...), simpleTags...)
	for _, tag := range tagtmpl.ParseTags(template) {
		if !slices.Contains(allowed, tag.Name) {
			return queryir.Errorf(queryir.ErrCodeSchema, kind,
				"unknown tag %%(%s) in %s template", tag.Name, kind)
		}
	}
	return nil
}

// replace resolves one statement-level tag.
func (s *statement) replace(name string, fn func() (string, error)) error {
	return s.tags.Replace(name, func(string, []string) (string, error) { return fn() })
}

func (s *statement) replaceWhere(conds []queryir.Condition) error {
	return s.replace("where", func() (string, error) {
		return s.where.compile(conds)
	})
}

func (s *statement) replaceTables() error {
	return s.replace("tables", func() (string, error) {
		return s.c.tablesSQL(s.plan), nil
	})
}

// finish resolves the simple tags left in the assembled statement.
func (s *statement) finish() (string, error) {
	c := s.c
	sql := s.tags.Result()
	r := tagtmpl.New(sql)

	err := r.Replace("tblalias", func(_ string, args []string) (string, error) {
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		src, ok := s.plan.Source(path)
		if !ok {
			return "", queryir.Errorf(queryir.ErrCodeSchema, s.kind, "unknown relation %q in %%(tblalias)", path)
		}
		return c.dialect.QuoteTableAlias(src.Alias), nil
	})
	if err != nil {
		return "", err
	}

	err = r.Replace("field", func(_ string, args []string) (string, error) {
		if len(args) == 0 || args[0] == "" {
			return "", queryir.Errorf(queryir.ErrCodeSchema, s.kind, "%%(field) needs a field name")
		}
		return s.qualifiedColumn(args[0])
	})
	if err != nil {
		return "", err
	}

	err = r.Replace("whereParam", func(_ string, args []string) (string, error) {
		if len(args) > 0 {
			if v, ok := s.where.params[args[0]]; ok {
				return v, nil
			}
		}
		return "", queryir.Errorf(queryir.ErrCodeSchema, s.kind, "unknown where parameter %v", args)
	})
	if err != nil {
		return "", err
	}

	err = r.Replace("param", func(_ string, args []string) (string, error) {
		if len(args) == 0 {
			return "", queryir.Errorf(queryir.ErrCodeSchema, s.kind, "%%(param) needs a parameter name")
		}
		v, ok := c.params[args[0]]
		if !ok {
			return "", queryir.Errorf(queryir.ErrCodeSchema, s.kind, "unknown template parameter %q", args[0])
		}
		t := model.Implicit
		if len(args) > 1 {
			t = paramType(args[1])
		}
		return c.dialect.Value(v, t)
	})
	if err != nil {
		return "", err
	}
	return r.Result(), nil
}

// paramType maps the type hint of a %(param:name,type) tag.
func paramType(hint string) model.FieldType {
	switch strings.ToLower(hint) {
	case "s", "str", "string":
		return model.String
	case "i", "int", "integer":
		return model.Int
	case "f", "float":
		return model.Float
	case "b", "bool":
		return model.Bool
	}
	return model.Implicit
}

// qualifiedColumn renders alias.column for a possibly dotted field.
func (s *statement) qualifiedColumn(field string) (string, error) {
	path, name := splitField(field)
	src, ok := s.plan.Source(path)
	if !ok {
		return "", queryir.Errorf(queryir.ErrCodeSchema, s.kind,
			"field %s references relation %q that is not included", field, path)
	}
	return s.c.dialect.QuoteTableAlias(src.Alias) + "." +
		s.c.dialect.QuoteColumn(s.c.model.ColumnName(src.Entity, name)), nil
}

// fieldExpr is the expression for field inside a template: the complex
// expression when one is registered, otherwise a %(field) tag.
func (c *Compiler) fieldExpr(field string, parenthesize bool) string {
	if expr, ok := c.complex[field]; ok {
		if parenthesize {
			return "(" + expr + ")"
		}
		return expr
	}
	return "%(field:" + field + ")"
}

// tablesSQL renders the base table and a LEFT JOIN per resolved relation.
func (c *Compiler) tablesSQL(plan *Plan) string {
	d := c.dialect
	var b strings.Builder
	b.WriteString(d.QuoteTable(c.model.TableName(c.entity)))
	for _, j := range plan.Joins {
		left, _ := plan.Source(j.FromPath)
		right, _ := plan.Source(j.ToPath)
		fmt.Fprintf(&b, " LEFT JOIN %s %s ON (%s.%s = %s.%s)",
			d.QuoteTable(c.model.TableName(j.Entity)),
			d.QuoteTableAlias(right.Alias),
			d.QuoteTableAlias(left.Alias),
			d.QuoteColumn(c.model.ColumnName(left.Entity, j.SourceField)),
			d.QuoteTableAlias(right.Alias),
			d.QuoteColumn(c.model.ColumnName(right.Entity, j.TargetField)),
		)
	}
	return b.String()
}

var _ queryir.SQLSource = (*Compiler)(nil)
