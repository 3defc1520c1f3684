// voextract extracts a photometric template from a reference frame and
// evaluates its residuals against a second frame at the identity pose.
package main

import (
	"flag"
	"image"
	"image/png"
	"math"
	"os"

	"github.com/edaniels/golog"
	goutils "go.viam.com/utils"

	"github.com/viam-labs/photovo/channels"
	"github.com/viam-labs/photovo/disparity"
	"github.com/viam-labs/photovo/pyramid"
	"github.com/viam-labs/photovo/template"
	"github.com/viam-labs/photovo/transform"
	"github.com/viam-labs/photovo/utils"
	"github.com/viam-labs/photovo/warp"
)

var logger = golog.NewDevelopmentLogger("voextract")

func main() {
	calibPath := flag.String("calib", "", "stereo calibration JSON")
	refPath := flag.String("ref", "", "reference frame PNG")
	curPath := flag.String("cur", "", "current frame PNG")
	dispPath := flag.String("disparity", "", "disparity as 16-bit grayscale PNG, value/256 pixels")
	level := flag.Int("level", 0, "pyramid level to extract at")
	useBitPlanes := flag.Bool("bitplanes", false, "use the census bit-planes descriptor")
	flag.Parse()
	if *calibPath == "" || *refPath == "" || *curPath == "" || *dispPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	calib, err := transform.NewStereoCalibrationFromJSONFile(*calibPath)
	if err != nil {
		logger.Fatal(err)
	}
	refImg, err := decodePNG(*refPath)
	if err != nil {
		logger.Fatal(err)
	}
	curImg, err := decodePNG(*curPath)
	if err != nil {
		logger.Fatal(err)
	}
	dmap, err := decodeDisparity(*dispPath)
	if err != nil {
		logger.Fatal(err)
	}

	refLevels, err := pyramid.Gray(refImg, *level+1)
	if err != nil {
		logger.Fatal(err)
	}
	curLevels, err := pyramid.Gray(curImg, *level+1)
	if err != nil {
		logger.Fatal(err)
	}
	dview, err := disparity.NewPyramidLevel(dmap, *level)
	if err != nil {
		logger.Fatal(err)
	}

	rb, err := warp.NewRigidBody(calib.K(), calib.Baseline, *level)
	if err != nil {
		logger.Fatal(err)
	}
	tmpl := template.New(rb, *level, nil, template.WithExecutor(utils.Parallel{}))

	refCh := makeChannels(refLevels[*level], *useBitPlanes)
	curCh := makeChannels(curLevels[*level], *useBitPlanes)
	if err := tmpl.SetData(refCh, dview); err != nil {
		logger.Fatal(err)
	}
	logger.Infow("template extracted",
		"level", *level,
		"points", tmpl.NumPoints(),
		"channels", tmpl.NumChannels(),
	)

	residuals := make([]float32, tmpl.NumPixels())
	valid := make([]bool, tmpl.NumPoints())
	if err := tmpl.ComputeResiduals(curCh, warp.Identity(), residuals, valid); err != nil {
		logger.Fatal(err)
	}

	numValid := 0
	for _, v := range valid {
		if v {
			numValid++
		}
	}
	var sumAbs float64
	for _, r := range residuals {
		sumAbs += math.Abs(float64(r))
	}
	mean := 0.0
	if len(residuals) > 0 {
		mean = sumAbs / float64(len(residuals))
	}
	logger.Infow("residuals at identity",
		"valid_points", numValid,
		"mean_abs_residual", mean,
	)
}

func makeChannels(img *image.Gray, useBitPlanes bool) template.Channels {
	if useBitPlanes {
		return channels.NewBitPlanes(img, true)
	}
	return channels.NewIntensity(img)
}

func decodePNG(path string) (image.Image, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	return png.Decode(f)
}

// decodeDisparity reads a KITTI-style 16-bit disparity PNG where the stored
// value is 256 times the disparity in pixels and 0 marks missing estimates.
func decodeDisparity(path string) (*disparity.Map, error) {
	img, err := decodePNG(path)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	dmap := disparity.NewEmptyMap(bounds.Dy(), bounds.Dx())
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			dmap.Set(y, x, float32(r)/256.0)
		}
	}
	return dmap, nil
}
