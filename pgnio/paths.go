package pgnio

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// ResolvePaths expands directories into the files they contain, recursively.
// Plain files are passed through in the order given. Paths that cannot be
// read are logged and skipped.
func ResolvePaths(paths []string) []string {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			log.Warn().Err(err).Str("path", p).Msg("import-failed")
			continue
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		log.Info().Str("dir", p).Msg("importing-all-files-in-directory")
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("import-failed")
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			log.Warn().Err(err).Str("dir", p).Msg("import-failed")
		}
	}
	return files
}
