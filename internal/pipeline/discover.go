package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sfmbundle/internal/services"
	"sfmbundle/internal/services/sift"
)

// Discover lists the images directly inside dir whose extension matches one
// of extensions, ignoring case. Paths are returned in "./name" form, sorted.
// Two images that would write the same key file (x.jpg and x.JPG) are an
// ErrValidation.
func Discover(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read working directory: %w", err)
	}
	wanted := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		wanted[strings.ToLower(ext)] = struct{}{}
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := wanted[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}
		images = append(images, "./"+name)
	}
	if len(images) == 0 {
		return nil, services.Wrap(services.ErrNoImages, "discover", "",
			fmt.Sprintf("no %s files in %s", strings.Join(extensions, "/"), dir), nil)
	}
	sort.Strings(images)
	if err := checkDistinctStems(images); err != nil {
		return nil, err
	}
	return images, nil
}

func checkDistinctStems(images []string) error {
	seen := make(map[string]string, len(images))
	for _, image := range images {
		stem := sift.Stem(image)
		if other, ok := seen[stem]; ok {
			return services.Wrap(services.ErrValidation, "discover", "",
				fmt.Sprintf("%s and %s would both write %s.key; rename one", other, image, stem), nil)
		}
		seen[stem] = image
	}
	return nil
}
