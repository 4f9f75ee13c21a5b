package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bogem/id3v2/v2"
	"github.com/gofrs/flock"

	"mbtagger/internal/logging"
	"mbtagger/internal/services"
	"mbtagger/internal/tagplan"
	"mbtagger/internal/textutil"
)

// ErrAlreadyWritten reports a second write to the same file by one Writer.
var ErrAlreadyWritten = errors.New("file already written in this run")

// WriteResult is the outcome for one file.
type WriteResult struct {
	Path    string
	Changes []tagplan.FieldChange
	Err     error
}

// Report collects per-file results in approval order.
type Report struct {
	Results []WriteResult
}

// Written counts successful writes.
func (r Report) Written() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed lists the results that carry an error.
func (r Report) Failed() []WriteResult {
	var out []WriteResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Err summarizes failures as an ErrPartialWrite error, or nil.
func (r Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d files failed, first %s: %w",
		services.ErrPartialWrite, len(failed), len(r.Results), failed[0].Path, failed[0].Err)
}

// Writer applies approved plan entries to files.
type Writer struct {
	lockDir        string
	logger         *slog.Logger
	musicBrainzIDs bool

	mu      sync.Mutex
	written map[string]bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithMusicBrainzIDs toggles the TXXX id frames.
func WithMusicBrainzIDs(enabled bool) WriterOption {
	return func(w *Writer) {
		w.musicBrainzIDs = enabled
	}
}

// NewWriter builds a writer whose album locks live in lockDir.
func NewWriter(lockDir string, logger *slog.Logger, opts ...WriterOption) *Writer {
	w := &Writer{
		lockDir:        lockDir,
		logger:         logging.NewComponentLogger(logger, "writer"),
		musicBrainzIDs: true,
		written:        make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Apply writes every approved entry. It fails as a whole only when the
// approval does not permit writing or the album lock cannot be taken;
// per-file failures are reported in the Report.
func (w *Writer) Apply(ctx context.Context, approval tagplan.Approval, plan *tagplan.ChangePlan) (Report, error) {
	if plan == nil || !approval.Proceed() {
		return Report{}, services.Wrap(services.ErrAborted, "write", "apply plan", "writing was not approved", nil)
	}
	if len(approval.Entries) == 0 {
		return Report{}, nil
	}
	logger := logging.WithContext(ctx, w.logger)

	paths := make([]string, 0, len(approval.Entries))
	for _, idx := range approval.Entries {
		if idx >= 0 && idx < len(plan.Entries) {
			paths = append(paths, plan.Entries[idx].Local.Path)
		}
	}
	unlock, err := w.lockAlbum(commonDir(paths))
	if err != nil {
		return Report{}, err
	}
	defer unlock()

	var report Report
	for _, idx := range approval.Entries {
		if idx < 0 || idx >= len(plan.Entries) {
			continue
		}
		entry := plan.Entries[idx]
		result := WriteResult{Path: entry.Local.Path, Changes: entry.Changes()}
		switch {
		case ctx.Err() != nil:
			result.Err = ctx.Err()
		case !entry.Writable():
			result.Err = fmt.Errorf("entry with provenance %s is not writable", entry.Provenance)
		case !w.claim(entry.Local.Path):
			result.Err = ErrAlreadyWritten
		default:
			result.Err = w.writeFile(entry.Local.Path, entry.Proposed, plan.Artwork)
		}
		report.Results = append(report.Results, result)

		if result.Err != nil {
			logging.WarnWithContext(logger, "tag write failed", "tag_write_failed",
				logging.Path(result.Path),
				logging.Error(result.Err),
				logging.String(logging.FieldErrorHint, "check file permissions and rerun"),
				logging.String(logging.FieldImpact, "file keeps its previous tags"))
			continue
		}
		logger.Info("tags written",
			logging.Path(result.Path),
			logging.String("provenance", string(entry.Provenance)),
			logging.Int("changed_fields", len(result.Changes)))
	}
	return report, nil
}

func (w *Writer) claim(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.written[path] {
		return false
	}
	w.written[path] = true
	return true
}

func (w *Writer) writeFile(path string, values tagplan.TagValues, artwork *tagplan.Artwork) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open id3 tag: %w", err)
	}
	defer tag.Close()
	encodeTag(tag, values, encodeOptions{musicBrainzIDs: w.musicBrainzIDs, artwork: artwork})
	if err := tag.Save(); err != nil {
		return fmt.Errorf("save id3 tag: %w", err)
	}
	return nil
}

// lockAlbum takes the exclusive per-album lock and returns its release func.
func (w *Writer) lockAlbum(dir string) (func(), error) {
	if strings.TrimSpace(w.lockDir) == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(w.lockDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "write", "create lock directory", w.lockDir, err)
	}
	lockPath := filepath.Join(w.lockDir, "album-"+textutil.PathToken(dir)+".lock")
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "write", "acquire lock", lockPath, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrTransient, "write", "acquire lock",
			"another mbtagger run is writing "+dir, nil)
	}
	return func() { _ = lock.Unlock() }, nil
}

// commonDir returns the deepest directory containing every path.
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	dir := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		for !within(p, dir) {
			parent := filepath.Dir(dir)
			if parent == dir {
				return dir
			}
			dir = parent
		}
	}
	return dir
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
