package dialect

import (
	"fmt"
	"regexp"
	"strings"
)

// The canonical migrations are authored in the embedded reference dialect and
// use a restricted, known grammar: CREATE TABLE, CREATE [UNIQUE] INDEX,
// ALTER TABLE ... ADD COLUMN, INSERT OR IGNORE and plain DML. Translation is
// pure text rewriting scoped to those patterns, not a general SQL parser.

var (
	autoIncrementRe = regexp.MustCompile(`(?i)\bINTEGER\s+PRIMARY\s+KEY\s+AUTOINCREMENT\b`)
	datetimeRe      = regexp.MustCompile(`(?i)\bDATETIME\b`)
	insertIgnoreRe  = regexp.MustCompile(`(?i)\bINSERT\s+OR\s+IGNORE\s+INTO\b`)
	defaultClauseRe = regexp.MustCompile(`(?i)\s+DEFAULT\s+('(?:[^']|'')*'|[\w.]+(?:\(\))?)`)
	uniqueAttrRe    = regexp.MustCompile(`(?i)\s+UNIQUE\b`)
	boolDefaultRe   = regexp.MustCompile(`(?i)\b(DEFAULT\s+)([01])\b`)

	createTableRe = regexp.MustCompile(`(?i)^CREATE\s+TABLE\s+(IF\s+NOT\s+EXISTS\s+)?([\x60"\w]+)\s*\(`)
	createIndexRe = regexp.MustCompile(`(?i)^CREATE\s+(UNIQUE\s+)?INDEX\s+(IF\s+NOT\s+EXISTS\s+)?([\x60"\w]+)\s+ON\s+([\x60"\w]+)\s*\((.+)\)\s*$`)
	alterAddRe    = regexp.MustCompile(`(?i)^(ALTER\s+TABLE\s+)([\x60"\w]+)(\s+ADD\s+COLUMN\s+)([\x60"\w]+)(\s+.+)$`)

	tableConstraintRe = regexp.MustCompile(`(?i)^(PRIMARY|UNIQUE|CHECK|FOREIGN|CONSTRAINT|KEY)\b`)
	textTypeRe        = regexp.MustCompile(`(?i)^TEXT\b`)
	booleanTypeRe     = regexp.MustCompile(`(?i)^BOOLEAN\b`)
)

// Translator rewrites canonical DDL into a target dialect. It accumulates
// which declared columns are unbounded text across everything it has seen, so
// an index created by a later migration still gets its prefix length; feed it
// every canonical file (via Learn) before translating pending ones.
type Translator struct {
	d        Dialect
	textCols map[string]map[string]bool
}

// NewTranslator creates a Translator targeting the given dialect.
func NewTranslator(d Dialect) *Translator {
	return &Translator{
		d:        d,
		textCols: make(map[string]map[string]bool),
	}
}

// Learn records column type information from a canonical file without
// producing output.
func (t *Translator) Learn(source string) {
	t.Translate(source)
}

// Translate rewrites one canonical migration file into a list of statements
// safe to execute on the target engine, in order.
func (t *Translator) Translate(source string) []string {
	var out []string
	for _, stmt := range SplitStatements(source) {
		out = append(out, t.translateStatement(stmt)...)
	}
	return out
}

func (t *Translator) translateStatement(stmt string) []string {
	switch {
	case createTableRe.MatchString(stmt):
		return t.translateCreateTable(stmt)
	case createIndexRe.MatchString(normalizeSpace(stmt)):
		return []string{t.translateCreateIndex(normalizeSpace(stmt))}
	case alterAddRe.MatchString(normalizeSpace(stmt)):
		return []string{t.translateAlterAddColumn(normalizeSpace(stmt))}
	default:
		return []string{t.d.InsertIgnore(stmt)}
	}
}

// translateCreateTable rewrites a CREATE TABLE statement: auto-increment and
// temporal types, boolean default literals, text-column default stripping,
// and replacement of inline UNIQUE over text columns with a prefixed unique
// index. The result always carries IF NOT EXISTS.
func (t *Translator) translateCreateTable(stmt string) []string {
	m := createTableRe.FindStringSubmatch(stmt)
	table := stripQuotes(m[2])
	open := strings.Index(stmt, "(")
	closing := strings.LastIndex(stmt, ")")
	if open < 0 || closing <= open {
		return []string{stmt}
	}
	body := stmt[open+1 : closing]

	cols := t.mustTable(table)
	var defs []string
	var extra []string

	for _, def := range splitTopLevel(body) {
		def = normalizeSpace(def)
		if def == "" {
			continue
		}
		if tableConstraintRe.MatchString(def) {
			kept, idx := t.translateTableConstraint(table, def)
			if idx != "" {
				extra = append(extra, idx)
			}
			if kept != "" {
				defs = append(defs, kept)
			}
			continue
		}

		name, rest, ok := splitColumnDef(def)
		if !ok {
			defs = append(defs, def)
			continue
		}
		isText := textTypeRe.MatchString(rest)
		if isText {
			cols[name] = true
		}
		rest = t.rewriteColumnType(rest, isText)

		if isText && t.d.TextIndexPrefix() > 0 && uniqueAttrRe.MatchString(rest) {
			rest = uniqueAttrRe.ReplaceAllString(rest, "")
			rest = normalizeSpace(rest)
			extra = append(extra, t.uniqueIndexFor(table, []string{name}))
		}
		defs = append(defs, name+" "+rest)
	}

	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))
	return append([]string{create}, extra...)
}

// translateTableConstraint handles a table-level constraint def. It returns
// the (possibly unchanged) def to keep inline, and an extra statement when an
// inline UNIQUE over text columns had to become a prefixed unique index.
func (t *Translator) translateTableConstraint(table, def string) (kept, extra string) {
	upper := strings.ToUpper(def)
	if !strings.HasPrefix(upper, "UNIQUE") || t.d.TextIndexPrefix() == 0 {
		return def, ""
	}
	open := strings.Index(def, "(")
	closing := strings.LastIndex(def, ")")
	if open < 0 || closing <= open {
		return def, ""
	}
	var names []string
	hasText := false
	for _, c := range strings.Split(def[open+1:closing], ",") {
		name := stripQuotes(strings.TrimSpace(c))
		names = append(names, name)
		if t.mustTable(table)[name] {
			hasText = true
		}
	}
	if !hasText {
		return def, ""
	}
	return "", t.uniqueIndexFor(table, names)
}

// translateCreateIndex appends prefix lengths to text columns where the
// target requires them and normalizes the IF NOT EXISTS qualifier.
func (t *Translator) translateCreateIndex(stmt string) string {
	m := createIndexRe.FindStringSubmatch(stmt)
	unique := strings.TrimSpace(m[1]) != ""
	name := stripQuotes(m[3])
	table := stripQuotes(m[4])

	var cols []string
	for _, c := range strings.Split(m[5], ",") {
		c = strings.TrimSpace(c)
		bare := stripQuotes(c)
		if t.d.TextIndexPrefix() > 0 && !strings.Contains(c, "(") && t.mustTable(table)[bare] {
			c = fmt.Sprintf("%s(%d)", bare, t.d.TextIndexPrefix())
		}
		cols = append(cols, c)
	}

	var b strings.Builder
	b.WriteString("CREATE ")
	if unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	if t.d.SupportsCreateIndexIfNotExists() {
		b.WriteString("IF NOT EXISTS ")
	}
	fmt.Fprintf(&b, "%s ON %s (%s)", name, table, strings.Join(cols, ", "))
	return b.String()
}

// translateAlterAddColumn quotes reserved column names and applies the same
// column-type rewrites CREATE TABLE columns get.
func (t *Translator) translateAlterAddColumn(stmt string) string {
	m := alterAddRe.FindStringSubmatch(stmt)
	table := stripQuotes(m[2])
	column := stripQuotes(m[4])
	rest := normalizeSpace(m[5])

	isText := textTypeRe.MatchString(rest)
	if isText {
		t.mustTable(table)[column] = true
	}
	rest = t.rewriteColumnType(rest, isText)

	name := column
	if t.d.IsReserved(column) {
		name = t.d.Quote(column)
	}
	return m[1] + table + m[3] + name + " " + rest
}

// rewriteColumnType applies the per-dialect type and default rewrites to the
// part of a column def following the column name.
func (t *Translator) rewriteColumnType(rest string, isText bool) string {
	rest = autoIncrementRe.ReplaceAllString(rest, t.d.AutoIncrementPK())
	rest = datetimeRe.ReplaceAllString(rest, t.d.TimestampType())
	if t.d.HasBooleanType() && booleanTypeRe.MatchString(rest) {
		rest = boolDefaultRe.ReplaceAllStringFunc(rest, func(s string) string {
			mm := boolDefaultRe.FindStringSubmatch(s)
			if mm[2] == "1" {
				return mm[1] + "TRUE"
			}
			return mm[1] + "FALSE"
		})
	}
	if isText && !t.d.AllowsTextDefault() {
		rest = defaultClauseRe.ReplaceAllString(rest, "")
		rest = normalizeSpace(rest)
	}
	return rest
}

func (t *Translator) uniqueIndexFor(table string, columns []string) string {
	refs := make([]string, len(columns))
	for i, c := range columns {
		if t.mustTable(table)[c] && t.d.TextIndexPrefix() > 0 {
			refs[i] = fmt.Sprintf("%s(%d)", c, t.d.TextIndexPrefix())
		} else {
			refs[i] = c
		}
	}
	name := "idx_" + table + "_" + strings.Join(columns, "_")
	stmt := fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)", name, table, strings.Join(refs, ", "))
	if t.d.SupportsCreateIndexIfNotExists() {
		stmt = fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)", name, table, strings.Join(refs, ", "))
	}
	return stmt
}

func (t *Translator) mustTable(table string) map[string]bool {
	cols, ok := t.textCols[table]
	if !ok {
		cols = make(map[string]bool)
		t.textCols[table] = cols
	}
	return cols
}

// splitColumnDef splits "name TYPE rest..." into the bare column name and the
// remainder. Returns false for defs it cannot make sense of.
func splitColumnDef(def string) (name, rest string, ok bool) {
	i := strings.IndexAny(def, " \t")
	if i < 0 {
		return "", "", false
	}
	return stripQuotes(def[:i]), strings.TrimSpace(def[i+1:]), true
}

// splitTopLevel splits on commas outside parentheses and quotes.
func splitTopLevel(body string) []string {
	var parts []string
	var b strings.Builder
	depth := 0
	var quote byte
	for i := 0; i < len(body); i++ {
		c := body[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
			b.WriteByte(c)
		case '(':
			depth++
			b.WriteByte(c)
		case ')':
			depth--
			b.WriteByte(c)
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(b.String()))
				b.Reset()
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		parts = append(parts, s)
	}
	return parts
}

func stripQuotes(name string) string {
	return strings.Trim(name, "`\"'")
}

var spaceRe = regexp.MustCompile(`\s+`)

func normalizeSpace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
