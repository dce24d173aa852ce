package clause

// Fragment is either pre-built SQL text or a structured field list.
// Both SET and WHERE arguments of the CRUD helpers accept a Fragment.
type Fragment struct {
	raw    string
	fields Fields
	isRaw  bool
}

// Raw wraps caller-written SQL text, used verbatim.
func Raw(text string) Fragment {
	return Fragment{raw: text, isRaw: true}
}

// Match wraps a structured field list rendered through Assignments.
func Match(fields Fields) Fragment {
	return Fragment{fields: fields}
}

// MatchMap is Match(FromMap(m)).
func MatchMap(m map[string]any) Fragment {
	return Match(FromMap(m))
}

// IsRaw сообщает, содержит ли фрагмент готовый текст
func (f Fragment) IsRaw() bool {
	return f.isRaw
}

// IsEmpty сообщает, что фрагмент ничего не добавит в SQL
func (f Fragment) IsEmpty() bool {
	if f.isRaw {
		return f.raw == ""
	}
	return len(f.fields) == 0
}

// Fields возвращает структурированные поля (nil для Raw)
func (f Fragment) Fields() Fields {
	return f.fields
}

// Resolve renders the fragment. sep is only used for structured fields:
// ", " in SET position, " and " in WHERE position.
func (f Fragment) Resolve(sep string) string {
	if f.isRaw {
		return f.raw
	}
	return Assignments(f.fields, sep)
}

// Set renders the fragment for a SET clause.
func (f Fragment) Set() string {
	return f.Resolve(DefaultSeparator)
}

// Where renders the fragment for a WHERE clause.
func (f Fragment) Where() string {
	return f.Resolve(AndSeparator)
}
