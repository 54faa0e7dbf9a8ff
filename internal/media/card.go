package media

import (
	"image"
	"image/color"
	"image/draw"

	qrcode "github.com/skip2/go-qrcode"
)

// StandbyCard renders the frame shown when there is nothing to play: a dark
// card with a QR code pointing at the location where media should be added.
func StandbyCard(width, height int, content string) (*image.RGBA, error) {
	card := image.NewRGBA(image.Rect(0, 0, width, height))
	bg := color.RGBA{R: 18, G: 18, B: 22, A: 255}
	draw.Draw(card, card.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}

	size := height / 3
	if width < height {
		size = width / 3
	}
	qrImg := qr.Image(size)

	origin := image.Pt((width-size)/2, (height-size)/2)
	draw.Draw(card, image.Rectangle{Min: origin, Max: origin.Add(image.Pt(size, size))},
		qrImg, qrImg.Bounds().Min, draw.Over)

	return card, nil
}
