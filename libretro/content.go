package libretro

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unsafe"

	"github.com/google/uuid"
	hostapi "github.com/user-none/retrohost/api"
	"github.com/user-none/retrohost/romloader"
)

// contentState is the content of a session.
type contentState struct {
	noGame bool

	// path is the file handed to the core.
	path string
	// key names per-content storage (options, SRAM, states).
	key  string
	dir  string
	name string
	ext  string

	archivePath string
	archiveFile string
	extractDir  string

	// data is the loaded image when the core asked to keep it.
	data []byte
}

// ContentInfo describes the loaded content.
type ContentInfo struct {
	Path        string
	Name        string
	ArchivePath string
}

func newContentState(path, key string) *contentState {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return &contentState{
		path: path,
		key:  key,
		dir:  filepath.Dir(path),
		name: strings.TrimSuffix(base, ext),
		ext:  strings.ToLower(strings.TrimPrefix(ext, ".")),
	}
}

func (c *contentState) cleanup(s *Session) {
	c.data = nil
	if c.extractDir == "" {
		return
	}
	if err := os.RemoveAll(c.extractDir); err != nil {
		s.logf(hostapi.LogWarn, "Failed to remove extracted content: %v", err)
	}
	c.extractDir = ""
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// resolveContent finds the file for name in dir: name itself when it
// carries a valid extension, then name.<ext> for each valid extension, then
// the first archive named name.<archive ext>. A name ending in an archive
// extension opens that archive directly. Archives are extracted to the
// scratch area unless the core reads them itself.
func (s *Session) resolveContent(dir, name string) (*contentState, error) {
	exts := s.core.info.ValidExtensions
	notFound := &ContentNotFoundError{Dir: dir, Name: name, Extensions: exts}
	if name == "" {
		return nil, notFound
	}

	if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")); ext != "" && slices.Contains(exts, ext) {
		if p := filepath.Join(dir, name); isFile(p) {
			return newContentState(p, strings.TrimSuffix(name, filepath.Ext(name))), nil
		}
	}

	for _, ext := range exts {
		if p := filepath.Join(dir, name+"."+ext); isFile(p) {
			return newContentState(p, name), nil
		}
	}

	lower := strings.ToLower(name)
	for _, aext := range romloader.ArchiveExtensions {
		if !strings.HasSuffix(lower, aext) {
			continue
		}
		if archive := filepath.Join(dir, name); isFile(archive) {
			if c, ok := s.openArchive(archive, name[:len(name)-len(aext)]); ok {
				return c, nil
			}
			return nil, notFound
		}
	}

	for _, aext := range romloader.ArchiveExtensions {
		archive := filepath.Join(dir, name+aext)
		if !isFile(archive) {
			continue
		}
		if c, ok := s.openArchive(archive, name); ok {
			return c, nil
		}
	}
	return nil, notFound
}

// openArchive hands archive to the core as is when it blocks extraction,
// otherwise extracts it and picks the content for name.
func (s *Session) openArchive(archive, name string) (*contentState, bool) {
	if s.core.info.BlockExtract {
		return newContentState(archive, name), true
	}
	c, err := s.extractContent(archive, name)
	if err != nil {
		s.logf(hostapi.LogWarn, "Failed to extract %s: %v", archive, err)
		return nil, false
	}
	return c, true
}

// extractContent unpacks archive into a fresh scratch directory and picks
// name.<ext> from it, or the first extracted file.
func (s *Session) extractContent(archive, name string) (*contentState, error) {
	exts := s.core.info.ValidExtensions
	dest := filepath.Join(s.cfg.Layout.ScratchDir(), "content", uuid.NewString())
	paths, err := romloader.Extract(archive, dest, exts)
	if err != nil {
		os.RemoveAll(dest)
		return nil, err
	}

	chosen := paths[0]
	for _, ext := range exts {
		if p := filepath.Join(dest, name+"."+ext); slices.Contains(paths, p) {
			chosen = p
			break
		}
	}

	c := newContentState(chosen, name)
	c.dir = filepath.Dir(archive)
	c.archivePath = archive
	c.archiveFile = filepath.Base(chosen)
	c.extractDir = dest
	return c, nil
}

// loadContent calls retro_load_game. Strings and the content buffer live
// only for the call unless the core asked for persistent data.
func (s *Session) loadContent(c *contentState) error {
	core := s.core
	if c.noGame {
		if !core.ep.LoadGame(nil) {
			return fmt.Errorf("load without content: %w", ErrCoreRejected)
		}
		s.gameLoaded = true
		return nil
	}

	needFullpath := core.info.NeedFullpath
	persistent := false
	for _, o := range s.contentOverrides {
		if o.matches(c.ext) {
			needFullpath = o.needFullpath
			persistent = o.persistentData
			break
		}
	}

	var tmp stringTable
	defer tmp.release()

	gi := &gameInfo{path: tmp.cstr(c.path)}
	ext := &gameInfoExt{
		fullPath:       gi.path,
		dir:            tmp.cstr(c.dir),
		name:           tmp.cstr(c.name),
		ext:            tmp.cstr(c.ext),
		fileInArchive:  c.archivePath != "",
		persistentData: persistent && !needFullpath,
	}
	if c.archivePath != "" {
		ext.archivePath = tmp.cstr(c.archivePath)
		ext.archiveFile = tmp.cstr(c.archiveFile)
	}

	if !needFullpath {
		data, err := romloader.ReadFile(c.path)
		if err != nil {
			return fmt.Errorf("read content %s: %w", c.path, err)
		}
		if len(data) > 0 {
			if persistent {
				s.strings.pin(&data[0])
				c.data = data
			} else {
				tmp.pin(&data[0])
			}
			gi.data = unsafe.Pointer(&data[0])
			gi.size = uintptr(len(data))
			ext.data = gi.data
			ext.size = gi.size
		}
	}
	tmp.pin(gi)
	tmp.pin(ext)

	s.loadingGame = ext
	ok := core.ep.LoadGame(gi)
	s.loadingGame = nil
	if !ok {
		return fmt.Errorf("load %s: %w", c.path, ErrCoreRejected)
	}
	s.gameLoaded = true
	s.logf(hostapi.LogInfo, "loaded %s", c.path)
	return nil
}

// contentKey names per-content storage. Sessions without content use the
// core name.
func (s *Session) contentKey() string {
	if s.content == nil || s.content.noGame {
		return s.core.Name
	}
	return s.content.key
}

// Content describes the loaded content.
func (s *Session) Content() (ContentInfo, error) {
	if s.content == nil || s.content.noGame {
		return ContentInfo{}, ErrNoContent
	}
	return ContentInfo{
		Path:        s.content.path,
		Name:        s.content.key,
		ArchivePath: s.content.archivePath,
	}, nil
}
