package imaging_test

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sfmbundle/internal/imaging"
	"sfmbundle/internal/testsupport"
)

func TestGrayUsesLuma(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.RGBA{R: 255, A: 255})
	src.Set(1, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	gray := imaging.Gray(src)
	if got := gray.GrayAt(0, 0).Y; got != 76 {
		t.Fatalf("unexpected red luma %d", got)
	}
	if got := gray.GrayAt(1, 0).Y; got != 255 {
		t.Fatalf("unexpected white luma %d", got)
	}
}

func TestGrayCopiesYCbCrLuma(t *testing.T) {
	src := image.NewYCbCr(image.Rect(10, 10, 13, 12), image.YCbCrSubsampleRatio420)
	for i := range src.Y {
		src.Y[i] = uint8(i * 10)
	}
	gray := imaging.Gray(src)
	if gray.Bounds().Dx() != 3 || gray.Bounds().Dy() != 2 {
		t.Fatalf("unexpected bounds %v", gray.Bounds())
	}
	if got := gray.GrayAt(2, 1).Y; got != src.Y[src.YOffset(12, 11)] {
		t.Fatalf("unexpected luma %d", got)
	}
}

func TestWritePGMHeaderAndPayload(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = uint8(i + 1)
	}
	var buf bytes.Buffer
	if err := imaging.WritePGM(&buf, img); err != nil {
		t.Fatalf("WritePGM returned error: %v", err)
	}
	want := append([]byte("P5\n3 2\n255\n"), 1, 2, 3, 4, 5, 6)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("unexpected pgm bytes %v", buf.Bytes())
	}
}

func TestConvertToPGM(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	dst := filepath.Join(dir, "a.pgm")
	testsupport.WriteJPEG(t, src, 16, 9, &testsupport.EXIF{Make: "Acme"})

	if err := imaging.ConvertToPGM(src, dst); err != nil {
		t.Fatalf("ConvertToPGM returned error: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read pgm: %v", err)
	}
	header := "P5\n16 9\n255\n"
	if !strings.HasPrefix(string(data), header) {
		t.Fatalf("unexpected header %q", data[:len(header)])
	}
	if len(data) != len(header)+16*9 {
		t.Fatalf("unexpected pgm size %d", len(data))
	}
}

func TestConvertToPGMRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	testsupport.WriteFile(t, src, "garbage")
	if err := imaging.ConvertToPGM(src, filepath.Join(dir, "a.pgm")); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := os.Stat(filepath.Join(dir, "a.pgm")); !os.IsNotExist(err) {
		t.Fatal("expected no pgm output on failure")
	}
}
