// Package pptx reads and writes PresentationML packages. Parts are parsed
// lazily into mutable etree documents; only parts that were modified are
// re-serialized on save, every other zip entry is copied byte for byte.
package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"

	"pptx-translator/internal/logger"
	"pptx-translator/internal/types"
)

// Part is a parsed XML part of the package.
type Part struct {
	Name  string
	Doc   *etree.Document
	dirty bool
}

// Root returns the document element of the part.
func (p *Part) Root() *etree.Element {
	return p.Doc.Root()
}

// MarkDirty schedules the part for re-serialization on save.
func (p *Part) MarkDirty() {
	p.dirty = true
}

// Dirty reports whether the part was modified.
func (p *Part) Dirty() bool {
	return p.dirty
}

func (p *Part) bytes() ([]byte, error) {
	// Parts decoded from a legacy charset are written back as UTF-8.
	for _, tok := range p.Doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			if enc := declaredEncoding(pi.Inst); enc != "" && !strings.EqualFold(enc, "utf-8") {
				pi.Inst = `version="1.0" encoding="UTF-8" standalone="yes"`
			}
			break
		}
	}
	return p.Doc.WriteToBytes()
}

func declaredEncoding(inst string) string {
	i := strings.Index(inst, "encoding=")
	if i < 0 || len(inst) < i+10 {
		return ""
	}
	rest := inst[i+9:]
	q := rest[0]
	end := strings.IndexByte(rest[1:], q)
	if end < 0 {
		return ""
	}
	return rest[1 : end+1]
}

// Package is an opened OOXML zip container held in memory.
type Package struct {
	path  string
	zr    *zip.Reader
	files map[string]*zip.File

	mu     sync.Mutex
	parts  map[string]*Part
	rels   map[string]*Relationships
	closed bool
}

// OpenPackage reads the container at path. The file is not kept open.
func OpenPackage(filePath string) (*Package, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		code := types.ErrIO
		if os.IsNotExist(err) {
			code = types.ErrFileNotFound
		}
		return nil, types.NewAppError(code, "failed to read presentation", err)
	}
	pkg, err := NewPackage(data)
	if err != nil {
		return nil, err
	}
	pkg.path = filePath
	return pkg, nil
}

// NewPackage wraps container bytes.
func NewPackage(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, types.NewAppError(types.ErrIO, "not a zip container", err)
	}
	pkg := &Package{
		zr:    zr,
		files: make(map[string]*zip.File, len(zr.File)),
		parts: make(map[string]*Part),
		rels:  make(map[string]*Relationships),
	}
	for _, f := range zr.File {
		pkg.files[f.Name] = f
	}
	return pkg, nil
}

// Path returns the file the package was opened from.
func (pkg *Package) Path() string {
	return pkg.path
}

// HasPart reports whether the container holds an entry with this name.
func (pkg *Package) HasPart(name string) bool {
	_, ok := pkg.files[name]
	return ok
}

// Names lists the container entries in archive order.
func (pkg *Package) Names() []string {
	names := make([]string, 0, len(pkg.zr.File))
	for _, f := range pkg.zr.File {
		names = append(names, f.Name)
	}
	return names
}

// ReadRaw returns the uncompressed bytes of an entry.
func (pkg *Package) ReadRaw(name string) ([]byte, error) {
	f, ok := pkg.files[name]
	if !ok {
		return nil, types.NewAppErrorWithDetails(types.ErrIO, "missing part", name, nil)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrIO, "failed to open part", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrIO, "failed to read part", name, err)
	}
	return data, nil
}

// Part parses (once) and returns the XML part with the given name.
func (pkg *Package) Part(name string) (*Part, error) {
	pkg.mu.Lock()
	defer pkg.mu.Unlock()
	if pkg.closed {
		return nil, types.NewAppError(types.ErrIO, "package is closed", nil)
	}
	if p, ok := pkg.parts[name]; ok {
		return p, nil
	}
	data, err := pkg.ReadRaw(name)
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrIO, "malformed XML part", name, err)
	}
	if doc.Root() == nil {
		return nil, types.NewAppErrorWithDetails(types.ErrIO, "empty XML part", name, nil)
	}
	p := &Part{Name: name, Doc: doc}
	pkg.parts[name] = p
	return p, nil
}

// Rels returns the relationships of a part; a part without a rels entry
// has an empty set.
func (pkg *Package) Rels(partName string) (*Relationships, error) {
	pkg.mu.Lock()
	if r, ok := pkg.rels[partName]; ok {
		pkg.mu.Unlock()
		return r, nil
	}
	pkg.mu.Unlock()

	relsName := relsPartName(partName)
	r := &Relationships{source: partName}
	if pkg.HasPart(relsName) {
		data, err := pkg.ReadRaw(relsName)
		if err != nil {
			return nil, err
		}
		if err := r.parse(data); err != nil {
			return nil, types.NewAppErrorWithDetails(types.ErrIO, "malformed relationships", relsName, err)
		}
	}

	pkg.mu.Lock()
	pkg.rels[partName] = r
	pkg.mu.Unlock()
	return r, nil
}

func relsPartName(partName string) string {
	if partName == "" {
		return "_rels/.rels"
	}
	dir, base := path.Split(partName)
	return dir + "_rels/" + base + ".rels"
}

// DirtyParts lists the names of modified parts.
func (pkg *Package) DirtyParts() []string {
	pkg.mu.Lock()
	defer pkg.mu.Unlock()
	var names []string
	for _, f := range pkg.zr.File {
		if p, ok := pkg.parts[f.Name]; ok && p.dirty {
			names = append(names, f.Name)
		}
	}
	return names
}

// SaveAs writes the package to dest. The archive is assembled in a
// temporary file next to dest and renamed into place only after it was
// completely written, so dest is never left partially written.
func (pkg *Package) SaveAs(ctx context.Context, dest string) (err error) {
	pkg.mu.Lock()
	defer pkg.mu.Unlock()
	if pkg.closed {
		return types.NewAppError(types.ErrIO, "package is closed", nil)
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.NewAppError(types.ErrIO, "failed to create output directory", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return types.NewAppError(types.ErrIO, "failed to create temporary output", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	zw := zip.NewWriter(tmp)
	rewritten := 0
	for _, f := range pkg.zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, parsed := pkg.parts[f.Name]
		if !parsed || !p.dirty {
			if err := zw.Copy(f); err != nil {
				return types.NewAppErrorWithDetails(types.ErrIO, "failed to copy entry", f.Name, err)
			}
			continue
		}
		data, err := p.bytes()
		if err != nil {
			return types.NewAppErrorWithDetails(types.ErrIO, "failed to serialize part", f.Name, err)
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.Modified})
		if err != nil {
			return types.NewAppErrorWithDetails(types.ErrIO, "failed to add entry", f.Name, err)
		}
		if _, err := w.Write(data); err != nil {
			return types.NewAppErrorWithDetails(types.ErrIO, "failed to write entry", f.Name, err)
		}
		rewritten++
	}
	if err := zw.Close(); err != nil {
		return types.NewAppError(types.ErrIO, "failed to finalize archive", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		return types.NewAppError(types.ErrIO, "failed to set output permissions", err)
	}
	if err := tmp.Sync(); err != nil {
		return types.NewAppError(types.ErrIO, "failed to flush output", err)
	}
	if err := tmp.Close(); err != nil {
		return types.NewAppError(types.ErrIO, "failed to close output", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return types.NewAppError(types.ErrIO, "failed to move output into place", err)
	}

	logger.Debug("package saved",
		logger.String("path", dest),
		logger.Int("entries", len(pkg.zr.File)),
		logger.Int("rewritten", rewritten))
	return nil
}

// Close releases the parsed parts. Further use of the package fails.
func (pkg *Package) Close() error {
	pkg.mu.Lock()
	defer pkg.mu.Unlock()
	if pkg.closed {
		return fmt.Errorf("package already closed")
	}
	pkg.closed = true
	pkg.parts = nil
	pkg.rels = nil
	return nil
}
