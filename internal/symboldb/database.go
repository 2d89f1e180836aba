package symboldb

import (
	"strings"
)

// Database is an in-memory snapshot of the hierarchical symbol store. It is
// built once and then only read, so concurrent searches need no locking.
type Database struct {
	root   *Namespace
	byName map[string][]*Type
	nextID int64
	stats  Stats
}

// Stats counts the nodes of a database
type Stats struct {
	Namespaces int
	Types      int
	Functions  int
	Properties int
}

// New creates an empty database with just the root namespace
func New() *Database {
	return &Database{
		root:   &Namespace{byName: make(map[string]*Namespace)},
		byName: make(map[string][]*Type),
	}
}

// Root returns the unnamed root namespace
func (db *Database) Root() *Namespace {
	return db.root
}

// Stats returns node counts
func (db *Database) Stats() Stats {
	return db.stats
}

// Namespace returns the namespace at a "::"-separated path, creating missing
// levels. The empty path is the root.
func (db *Database) Namespace(path string) *Namespace {
	ns := db.root
	if strings.TrimSpace(path) == "" {
		return ns
	}
	for _, part := range strings.Split(path, "::") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if existing := ns.Child(part); existing != nil {
			ns = existing
			continue
		}
		child := ns.addChild(part)
		db.stats.Namespaces++
		for _, t := range ns.Types {
			if t.TypeName == part {
				child.Shadows = t
			}
		}
		ns = child
	}
	return ns
}

// AddType registers t in ns. A sibling namespace with the same name becomes
// the shadow namespace of t.
func (db *Database) AddType(ns *Namespace, t *Type) *Type {
	t.Namespace = ns
	ns.Types = append(ns.Types, t)
	if c := ns.Child(t.TypeName); c != nil {
		c.Shadows = t
	}
	db.indexType(t)
	return t
}

// AddNestedType registers t as a nested type of outer
func (db *Database) AddNestedType(outer *Type, t *Type) *Type {
	t.Namespace = outer.Namespace
	t.Outer = outer
	outer.Nested = append(outer.Nested, t)
	db.indexType(t)
	return t
}

func (db *Database) indexType(t *Type) {
	db.byName[t.TypeName] = append(db.byName[t.TypeName], t)
	db.stats.Types++
}

// ShadowNamespace returns the namespace holding the statics of t, creating it
func (db *Database) ShadowNamespace(t *Type) *Namespace {
	ns := db.Namespace(t.Namespace.Prefix() + t.TypeName)
	ns.Shadows = t
	return ns
}

// AddMethod attaches m to its owning type
func (db *Database) AddMethod(owner *Type, m *Method) *Method {
	m.Owner = owner
	m.Namespace = owner.Namespace
	owner.Methods = append(owner.Methods, m)
	db.assignMethodID(m)
	return m
}

// AddFunction declares a free function (or static, when ns shadows a type) in ns
func (db *Database) AddFunction(ns *Namespace, m *Method) *Method {
	m.Namespace = ns
	ns.Functions = append(ns.Functions, m)
	db.assignMethodID(m)
	return m
}

// AddProperty attaches p to its owning type
func (db *Database) AddProperty(owner *Type, p *Property) *Property {
	p.Owner = owner
	p.Namespace = owner.Namespace
	owner.Properties = append(owner.Properties, p)
	db.assignPropertyID(p)
	return p
}

// AddVariable declares a global variable in ns
func (db *Database) AddVariable(ns *Namespace, p *Property) *Property {
	p.Namespace = ns
	ns.Variables = append(ns.Variables, p)
	db.assignPropertyID(p)
	return p
}

func (db *Database) assignMethodID(m *Method) {
	db.stats.Functions++
	m.ID = db.claimID(m.ID)
}

func (db *Database) assignPropertyID(p *Property) {
	db.stats.Properties++
	p.ID = db.claimID(p.ID)
}

// claimID keeps caller-provided IDs (storage row ids) and hands out fresh
// ones above the highest seen otherwise
func (db *Database) claimID(id int64) int64 {
	if id != 0 {
		if id > db.nextID {
			db.nextID = id
		}
		return id
	}
	db.nextID++
	return db.nextID
}

// LookupType finds a type by a declared type name. Qualifiers such as
// "const", "&" and "*" are stripped, and a qualified name falls back to its
// last segment. The first declared type wins.
func (db *Database) LookupType(name string) *Type {
	name = normalizeTypeName(name)
	if name == "" {
		return nil
	}
	if ts := db.byName[name]; len(ts) > 0 {
		return ts[0]
	}
	if i := strings.LastIndexAny(name, ":."); i >= 0 && i+1 < len(name) {
		if ts := db.byName[name[i+1:]]; len(ts) > 0 {
			return ts[0]
		}
	}
	return nil
}

func normalizeTypeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "const ")
	name = strings.TrimSuffix(name, " const")
	name = strings.TrimRight(name, "&* ")
	name = strings.TrimLeft(name, "*&[] ")
	return strings.TrimSpace(name)
}
