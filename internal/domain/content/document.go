package content

// Document is the aggregate portfolio content. It stays schemaless on purpose:
// the merge and validation rules are structural, and edits may carry fields
// this server has never seen.
type Document = map[string]any

type sectionKind int

const (
	kindObject sectionKind = iota
	kindArray
)

// section maps a top-level document key to the static file that ships its
// default content.
type section struct {
	name string
	kind sectionKind
	file string
}

// Six fixed sections. Order matters for validation, which fails fast on the
// first violation.
var sections = []section{
	{name: "profile", kind: kindObject, file: "profile.json"},
	{name: "projects", kind: kindArray, file: "projects.json"},
	{name: "resume", kind: kindObject, file: "resume.json"},
	{name: "certificates", kind: kindArray, file: "certificates.json"},
	{name: "socialLinks", kind: kindArray, file: "social-links.json"},
	{name: "config", kind: kindObject, file: "config.json"},
}

// defaultDocument returns the zero-value document every load starts from.
func defaultDocument() Document {
	doc := Document{}
	for _, s := range sections {
		switch s.kind {
		case kindArray:
			doc[s.name] = []any{}
		default:
			doc[s.name] = map[string]any{}
		}
	}
	return doc
}
