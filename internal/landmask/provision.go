package landmask

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ngmaloney/rotation-map/internal/logging"
)

const (
	// Natural Earth 1:110m land polygons (public domain)
	NaturalEarthLandURL = "https://naciscdn.org/naturalearth/110m/physical/ne_110m_land.zip"
	naturalEarthBase    = "ne_110m_land"
)

var httpClient = &http.Client{Timeout: 2 * time.Minute}

// ShapefilePath returns where the provisioned land shapefile lives in dir
func ShapefilePath(dir string) string {
	return filepath.Join(dir, naturalEarthBase+".shp")
}

// NeedsProvisioning reports whether the land shapefile is missing from dir
func NeedsProvisioning(dir string) bool {
	_, err := os.Stat(ShapefilePath(dir))
	return os.IsNotExist(err)
}

// Provision downloads and extracts the land shapefile into dir unless it
// is already there, and returns the .shp path.
func Provision(ctx context.Context, dir, url string) (string, error) {
	shpPath := ShapefilePath(dir)
	if !NeedsProvisioning(dir) {
		return shpPath, nil
	}
	if url == "" {
		url = NaturalEarthLandURL
	}

	log := logging.With().Str("component", "landmask").Logger()
	log.Info().Str("dir", dir).Msg("Land shapefile not found, provisioning")

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}

	zipPath := filepath.Join(dir, naturalEarthBase+".zip")
	log.Info().Str("url", url).Msg("Downloading land polygons")
	if err := downloadFile(ctx, zipPath, url); err != nil {
		return "", fmt.Errorf("downloading shapefile: %w", err)
	}
	defer os.Remove(zipPath)

	if err := unzipFile(zipPath, dir); err != nil {
		return "", fmt.Errorf("extracting shapefile: %w", err)
	}
	if NeedsProvisioning(dir) {
		return "", fmt.Errorf("archive did not contain %s", filepath.Base(shpPath))
	}

	log.Info().Str("path", shpPath).Msg("Land shapefile provisioned")
	return shpPath, nil
}

func downloadFile(ctx context.Context, dest, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

// unzipFile extracts a zip archive into dest, rejecting entries that escape it
func unzipFile(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	root := filepath.Clean(dest) + string(os.PathSeparator)
	for _, f := range r.File {
		fpath := filepath.Join(dest, f.Name)
		if !strings.HasPrefix(fpath, root) {
			return fmt.Errorf("illegal file path: %s", fpath)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return err
		}
		if err := extractFile(f, fpath); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, fpath string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
