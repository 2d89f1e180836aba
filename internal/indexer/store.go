package indexer

import (
	"context"
	"fmt"

	"github.com/dshills/apisearch-mcp/internal/storage"
	"github.com/dshills/apisearch-mcp/pkg/types"
)

// declSet is the declarations of one namespace
type declSet struct {
	namespace string
	result    *types.ParseResult
}

// declWriter stores the declarations of one source
type declWriter struct {
	store    storage.Storage
	sourceID int64
	origin   types.Origin
	symbols  int
}

func (w *declWriter) write(ctx context.Context, set declSet) error {
	nsID, err := w.store.EnsureNamespace(ctx, set.namespace)
	if err != nil {
		return err
	}

	for _, td := range set.result.Types {
		if err := w.writeType(ctx, set.namespace, nsID, nil, td); err != nil {
			return err
		}
	}
	for _, fd := range set.result.Functions {
		if err := w.writeFunction(ctx, nsID, nil, fd); err != nil {
			return err
		}
	}
	for _, vd := range set.result.Variables {
		if err := w.writeProperty(ctx, nsID, nil, vd); err != nil {
			return err
		}
	}
	return nil
}

// writeType stores td and its members. Statics of top-level types go into
// the namespace named after the type.
func (w *declWriter) writeType(ctx context.Context, namespace string, nsID int64, outerID *int64, td types.TypeDecl) error {
	t := &storage.Type{
		SourceID:    w.sourceID,
		NamespaceID: nsID,
		OuterID:     outerID,
		Name:        td.Name,
		Kind:        td.Kind,
		Super:       td.Super,
		Template:    td.Template,
		Origin:      w.originOf(td.Origin),
		Signature:   td.Signature,
		Doc:         td.Doc,
	}
	if err := w.store.InsertType(ctx, t); err != nil {
		return err
	}
	w.symbols++

	var staticsID int64
	for _, fd := range td.Methods {
		if fd.Static && outerID == nil {
			if staticsID == 0 {
				id, err := w.store.EnsureNamespace(ctx, qualify(namespace, td.Name))
				if err != nil {
					return err
				}
				staticsID = id
			}
			if err := w.writeFunction(ctx, staticsID, nil, fd); err != nil {
				return err
			}
			continue
		}
		if err := w.writeFunction(ctx, nsID, &t.ID, fd); err != nil {
			return err
		}
	}
	for _, vd := range td.Properties {
		if err := w.writeProperty(ctx, nsID, &t.ID, vd); err != nil {
			return err
		}
	}
	for _, nested := range td.Nested {
		if err := w.writeType(ctx, namespace, nsID, &t.ID, nested); err != nil {
			return fmt.Errorf("%s: %w", td.Name, err)
		}
	}
	return nil
}

func (w *declWriter) writeFunction(ctx context.Context, nsID int64, ownerID *int64, fd types.FuncDecl) error {
	f := &storage.Function{
		SourceID:    w.sourceID,
		NamespaceID: nsID,
		OwnerID:     ownerID,
		Name:        fd.Name,
		ReturnType:  fd.ReturnType,
		Params:      fd.Params,
		Constructor: fd.Constructor,
		Generated:   fd.Generated,
		Mixin:       fd.Mixin,
		Static:      fd.Static,
		Const:       fd.Const,
		Origin:      w.originOf(fd.Origin),
		Signature:   fd.Signature,
		Doc:         fd.Doc,
	}
	if err := w.store.InsertFunction(ctx, f); err != nil {
		return err
	}
	w.symbols++
	return nil
}

func (w *declWriter) writeProperty(ctx context.Context, nsID int64, ownerID *int64, vd types.VarDecl) error {
	p := &storage.Property{
		SourceID:    w.sourceID,
		NamespaceID: nsID,
		OwnerID:     ownerID,
		Name:        vd.Name,
		ValueType:   vd.Type,
		Constant:    vd.Constant,
		Origin:      w.originOf(vd.Origin),
		Signature:   vd.Signature,
		Doc:         vd.Doc,
	}
	if err := w.store.InsertProperty(ctx, p); err != nil {
		return err
	}
	w.symbols++
	return nil
}

func (w *declWriter) originOf(o types.Origin) types.Origin {
	if o == "" {
		return w.origin
	}
	return o
}

// qualify joins a namespace and a name with "::"
func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "::" + name
}
