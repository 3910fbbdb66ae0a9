package content

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/draw"
)

// firstPageImage extracts the first page's embedded image and upscales it for
// downstream legibility. Scanned reports embed the page scan as a single
// image object, so this recovers a raster of the page itself.
func (e *Extractor) firstPageImage(tempFile string) ([]byte, error) {
	outDir, err := os.MkdirTemp(e.tempDir, "images_")
	if err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractImagesFile(tempFile, outDir, []string{"1"}, conf); err != nil {
		return nil, fmt.Errorf("extract images: %w", err)
	}

	src, err := firstDecodableImage(outDir)
	if err != nil {
		return nil, err
	}

	scaled := upscale(src, e.upscaleFactor())

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	return buf.Bytes(), nil
}

func (e *Extractor) upscaleFactor() int {
	if e.cfg.UpscaleFactor <= 1 {
		return 2
	}
	return e.cfg.UpscaleFactor
}

func firstDecodableImage(dir string) (image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read image dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			continue
		}
		return img, nil
	}

	return nil, fmt.Errorf("no decodable image on first page")
}

func upscale(src image.Image, factor int) image.Image {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*factor, bounds.Dy()*factor))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
