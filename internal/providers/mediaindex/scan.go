package mediaindex

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/docbridge/internal/domain/collection"
	"github.com/GriffinCanCode/docbridge/internal/shared/id"
	"github.com/GriffinCanCode/docbridge/internal/shared/paths"
)

// ScanPatterns select the files a scan registers, relative to the media root.
var ScanPatterns = []string{
	"{DCIM,Pictures}/**",
	"Movies/**",
	"{Alarms,Audiobooks,Music,Notifications,Podcasts,Recordings,Ringtones}/**",
	"{Download,Downloads}/**",
}

// hidden files and anything beneath hidden directories
var hiddenPatterns = []string{"**/.*", "**/.*/**"}

// Scan registers finalized entries for files under root that the catalog does not know.
// root must be the host directory backing the index filesystem.
func (i *Index) Scan(ctx context.Context, root string) (int, error) {
	known, err := i.catalog.List(ctx, Filter{IncludePending: true})
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(known))
	for _, e := range known {
		seen[e.Path()] = true
	}

	var (
		mu    sync.Mutex
		found []string
	)
	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			i.logger.Warn("scan skipped path", zap.String("path", p), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !scannable(rel) || seen[rel] {
			return nil
		}

		mu.Lock()
		found = append(found, rel)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return 0, err
	}

	added := 0
	for _, rel := range found {
		if err := i.register(ctx, rel); err != nil {
			i.logger.Warn("scan could not register file", zap.String("path", rel), zap.Error(err))
			continue
		}
		added++
	}
	i.logger.Info("media scan finished", zap.String("root", root), zap.Int("known", len(known)), zap.Int("added", added))
	return added, nil
}

func scannable(rel string) bool {
	for _, pattern := range hiddenPatterns {
		if hidden, _ := doublestar.Match(pattern, rel); hidden {
			return false
		}
	}
	for _, pattern := range ScanPatterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (i *Index) register(ctx context.Context, rel string) error {
	fi, err := i.fs.Stat(paths.Separator + rel)
	if err != nil {
		return err
	}
	dir, name := paths.Split(rel)
	contentType, err := i.detect(rel, name)
	if err != nil {
		return err
	}
	c, err := collection.Classify(rel, contentType)
	if err != nil {
		return err
	}

	return i.catalog.Insert(ctx, Entry{
		ID:           id.NewEntryID().String(),
		Collection:   c,
		RelativePath: dir,
		DisplayName:  name,
		ContentType:  contentType,
		Size:         fi.Size(),
		Created:      fi.ModTime(),
		Modified:     fi.ModTime(),
	})
}

func (i *Index) detect(rel, name string) (string, error) {
	if t := collection.TypeByExtension(name); t != "" {
		return t, nil
	}
	f, err := i.fs.Open(paths.Separator + rel)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return collection.SniffReader(io.LimitReader(f, 3072))
}
