package cv

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

var matchBoxColor = color.NRGBA{R: 0, G: 255, B: 0, A: 255}

// DebugMatch returns a copy of frame with the match box drawn 2px wide
func DebugMatch(frame image.Image, result *MatchResult) *image.NRGBA {
	debug := imaging.Clone(frame)
	if result == nil {
		return debug
	}

	rect := result.Rect()
	drawRect(debug, rect, matchBoxColor)
	drawRect(debug, rect.Inset(1), matchBoxColor)
	return debug
}

// SaveDebugMatch writes the annotated frame to <dir>/<templateName>_result.png
// and returns the written path
func SaveDebugMatch(dir, templateName string, frame image.Image, result *MatchResult) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_result.png", templateName))
	if err := imaging.Save(DebugMatch(frame, result), path); err != nil {
		return "", fmt.Errorf("failed to save match result: %w", err)
	}
	return path, nil
}

// ClearDirectory removes every file in dir, creating dir if it is missing
func ClearDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func drawRect(img *image.NRGBA, rect image.Rectangle, col color.NRGBA) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return
	}

	// Top and bottom
	for x := rect.Min.X; x < rect.Max.X; x++ {
		img.SetNRGBA(x, rect.Min.Y, col)
		img.SetNRGBA(x, rect.Max.Y-1, col)
	}
	// Left and right
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		img.SetNRGBA(rect.Min.X, y, col)
		img.SetNRGBA(rect.Max.X-1, y, col)
	}
}
