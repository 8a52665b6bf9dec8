package imaging

import (
	"bufio"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"golang.org/x/image/draw"
)

// Gray converts img to 8-bit luma. JPEG sources are already stored as
// Y'CbCr, so their luma plane is copied directly.
func Gray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	if src, ok := img.(*image.YCbCr); ok {
		for y := 0; y < bounds.Dy(); y++ {
			row := src.YOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+bounds.Dx()], src.Y[row:row+bounds.Dx()])
		}
		return dst
	}

	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}

// WritePGM writes img as a binary (P5) portable graymap.
func WritePGM(w io.Writer, img *image.Gray) error {
	bounds := img.Bounds()
	out := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(out, "P5\n%d %d\n255\n", bounds.Dx(), bounds.Dy()); err != nil {
		return err
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		start := img.PixOffset(bounds.Min.X, y)
		if _, err := out.Write(img.Pix[start : start+bounds.Dx()]); err != nil {
			return err
		}
	}
	return out.Flush()
}

// ConvertToPGM decodes the image at src and writes its grayscale PGM
// rendition to dst.
func ConvertToPGM(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("decode image %s: %w", src, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create pgm: %w", err)
	}
	if err := WritePGM(out, Gray(img)); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("write pgm: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("close pgm: %w", err)
	}
	return nil
}
