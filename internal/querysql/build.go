package querysql

import (
	"slices"
	"strings"

	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/queryir"
)

// SelectSQL renders a select statement.
func (c *Compiler) SelectSQL(q *queryir.SelectSpec) (string, error) {
	s, err := c.newStatement("select", c.selectTemplate, q.Relations)
	if err != nil {
		return "", err
	}
	if err := s.replaceWhere(q.Where); err != nil {
		return "", err
	}
	err = s.replace("orderBy", func() (string, error) {
		parts := make([]string, 0, len(q.OrderBy))
		for i, t := range q.OrderBy {
			if t.Func != nil {
				return "", queryir.Errorf(queryir.ErrCodeUnsupportedValue, "select",
					"order term %d uses a custom comparator, which cannot be rendered as SQL", i)
			}
			parts = append(parts, c.fieldExpr(t.Field, false)+" "+t.Direction())
		}
		return strings.Join(parts, ","), nil
	})
	if err != nil {
		return "", err
	}
	err = s.replace("groupBy", func() (string, error) {
		parts := make([]string, len(q.GroupBy))
		for i, f := range q.GroupBy {
			parts[i] = c.fieldExpr(f, false)
		}
		return strings.Join(parts, ","), nil
	})
	if err != nil {
		return "", err
	}
	if err := s.replace("having", func() (string, error) { return "", nil }); err != nil {
		return "", err
	}
	if err := s.replaceTables(); err != nil {
		return "", err
	}
	err = s.replace("columns", func() (string, error) {
		return s.columnsSQL(q)
	})
	if err != nil {
		return "", err
	}

	sql, err := s.finish()
	if err != nil {
		return "", err
	}
	if q.Limit != nil || q.Offset != nil {
		sql = c.dialect.ApplyLimit(sql, q.Limit, q.Offset)
	}
	return sql, nil
}

// columnsSQL renders the select list. "rel.*" expands to every field of a
// relation, or to alias.* when the model does not list the fields.
func (s *statement) columnsSQL(q *queryir.SelectSpec) (string, error) {
	c := s.c
	if q.AllFields() {
		var parts []string
		for _, src := range s.plan.Sources() {
			parts = append(parts, s.sourceColumns(src))
		}
		return strings.Join(parts, ","), nil
	}

	parts := make([]string, 0, len(q.Fields))
	for _, f := range q.Fields {
		if f == queryir.AllFields || strings.HasSuffix(f, ".*") {
			path := strings.TrimSuffix(strings.TrimSuffix(f, "*"), ".")
			src, ok := s.plan.Source(path)
			if !ok {
				return "", queryir.Errorf(queryir.ErrCodeSchema, "select",
					"field %s references relation %q that is not included", f, path)
			}
			parts = append(parts, s.sourceColumns(src))
			continue
		}
		if expr, ok := c.complex[f]; ok {
			parts = append(parts, expr+" AS "+c.dialect.QuoteColumnAlias(f))
			continue
		}
		col, err := s.qualifiedColumn(f)
		if err != nil {
			return "", err
		}
		parts = append(parts, col+" AS "+c.dialect.QuoteColumnAlias(f))
	}
	return strings.Join(parts, ","), nil
}

func (s *statement) sourceColumns(src Source) string {
	c := s.c
	alias := c.dialect.QuoteTableAlias(src.Alias)
	names := c.model.FieldNames(src.Entity)
	if names == nil {
		return alias + ".*"
	}
	parts := make([]string, len(names))
	for i, name := range names {
		label := name
		if src.Path != "" {
			label = src.Path + "." + name
		}
		parts[i] = alias + "." + c.dialect.QuoteColumn(c.model.ColumnName(src.Entity, name)) +
			" AS " + c.dialect.QuoteColumnAlias(label)
	}
	return strings.Join(parts, ",")
}

// CountSQL renders a count statement.
func (c *Compiler) CountSQL(q *queryir.CountSpec) (string, error) {
	s, err := c.newStatement("count", c.countTemplate, q.Relations)
	if err != nil {
		return "", err
	}
	if err := s.replaceWhere(q.Where); err != nil {
		return "", err
	}
	if err := s.replaceTables(); err != nil {
		return "", err
	}
	err = s.replace("columns", func() (string, error) {
		return "count(*) AS " + c.dialect.QuoteColumnAlias(c.countAlias), nil
	})
	if err != nil {
		return "", err
	}
	return s.finish()
}

// UpdateSQL renders an update statement. Assigned columns are qualified
// only when relations are joined.
func (c *Compiler) UpdateSQL(q *queryir.UpdateSpec) (string, error) {
	if len(q.Set) == 0 {
		return "", queryir.Errorf(queryir.ErrCodeInvalidQuery, "update", "no assignments")
	}
	s, err := c.newStatement("update", c.updateTemplate, q.Relations)
	if err != nil {
		return "", err
	}
	if err := s.replaceWhere(q.Where); err != nil {
		return "", err
	}
	if err := s.replaceTables(); err != nil {
		return "", err
	}
	err = s.replace("set", func() (string, error) {
		parts := make([]string, len(q.Set))
		for i, a := range q.Set {
			t, err := fieldType(c.model, c.entity, a.Field)
			if err != nil {
				return "", err
			}
			v, err := c.dialect.Value(a.Value, t)
			if err != nil {
				return "", err
			}
			target := "%(field:" + a.Field + ")"
			if len(s.plan.Joins) == 0 && !strings.Contains(a.Field, ".") {
				target = c.dialect.QuoteColumn(c.model.ColumnName(c.entity, a.Field))
			}
			parts[i] = target + " = %(whereParam:" + s.where.register(v) + ")"
		}
		return strings.Join(parts, ", "), nil
	})
	if err != nil {
		return "", err
	}
	return s.finish()
}

// DeleteSQL renders a delete statement.
func (c *Compiler) DeleteSQL(q *queryir.DeleteSpec) (string, error) {
	s, err := c.newStatement("delete", c.deleteTemplate, q.Relations)
	if err != nil {
		return "", err
	}
	if err := s.replaceWhere(q.Where); err != nil {
		return "", err
	}
	if err := s.replaceTables(); err != nil {
		return "", err
	}
	return s.finish()
}

// DocumentSQL renders the statement of a query document of any kind.
func (c *Compiler) DocumentSQL(doc *queryir.Document) (string, error) {
	switch doc.Kind {
	case queryir.KindCount:
		q, err := doc.CountQuery(nil)
		if err != nil {
			return "", err
		}
		return c.CountSQL(q.Spec())
	case queryir.KindUpdate:
		q, err := doc.UpdateQuery(nil)
		if err != nil {
			return "", err
		}
		return c.UpdateSQL(q.Spec())
	case queryir.KindDelete:
		q, err := doc.DeleteQuery(nil)
		if err != nil {
			return "", err
		}
		return c.DeleteSQL(q.Spec())
	}
	q, err := doc.Query(nil)
	if err != nil {
		return "", err
	}
	return c.SelectSQL(q.Spec())
}

// InsertSQL renders one multi-row INSERT. The column list is the union of
// the rows' fields in first-seen order; missing fields insert NULL.
func (c *Compiler) InsertSQL(rows ...ir.Row) (string, error) {
	if len(rows) == 0 {
		return "", queryir.Errorf(queryir.ErrCodeInvalidQuery, "insert", "no rows")
	}
	var fields []string
	for _, r := range rows {
		for _, f := range rowFields(r) {
			if !slices.Contains(fields, f) {
				fields = append(fields, f)
			}
		}
	}
	if len(fields) == 0 {
		return "", queryir.Errorf(queryir.ErrCodeInvalidQuery, "insert", "rows have no fields")
	}

	d := c.dialect
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = d.QuoteColumn(c.model.ColumnName(c.entity, f))
	}
	tuples := make([]string, len(rows))
	for i, r := range rows {
		vals := make([]string, len(fields))
		for j, f := range fields {
			v, err := d.Value(ir.Value(r, f), c.model.FieldType(c.entity, f))
			if err != nil {
				return "", queryir.Errorf(queryir.ErrCodeUnsupportedValue, "insert",
					"row %d field %s: %v", i, f, err)
			}
			vals[j] = v
		}
		tuples[i] = "(" + strings.Join(vals, ",") + ")"
	}
	return "INSERT INTO " + d.QuoteTable(c.model.TableName(c.entity)) +
		" (" + strings.Join(cols, ",") + ") VALUES " + strings.Join(tuples, ","), nil
}

// rowFields lists the fields of a row: column order for ordered rows,
// sorted names for records.
func rowFields(r ir.Row) []string {
	if o, ok := r.(ir.Ordered); ok {
		return o.Keys()
	}
	if rec := ir.ToRecord(r); rec != nil {
		return rec.SortedKeys()
	}
	return nil
}

type subSelect struct {
	c    *Compiler
	spec *queryir.SelectSpec
}

func (s subSelect) SelectSQL() (string, error) { return s.c.SelectSQL(s.spec) }

// SubSelect binds spec to c so the rendered select can be used as a
// condition value of another query.
func (c *Compiler) SubSelect(spec *queryir.SelectSpec) queryir.SubSelect {
	return subSelect{c: c, spec: spec}
}
