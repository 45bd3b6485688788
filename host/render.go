package host

import (
	"context"
	"encoding/binary"
	stdErrors "errors"
	"fmt"
	"math"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/domain/errors"
	"github.com/ofxdriver/ofxdriver/domain/ports"
	"github.com/ofxdriver/ofxdriver/hostfuncs"
)

// RenderFilter renders one frame of an Active instance from inputPath to
// outputPath. The output is written only when the Render action succeeds.
// Without a layout the project and the output match the input image.
func (h *Host) RenderFilter(ctx context.Context, instanceName, inputPath, outputPath string, layout *entities.RenderLayout) error {
	inst, err := h.activeInstance(instanceName, "render")
	if err != nil {
		return err
	}
	src, ok := inst.Effect.Clip(entities.ClipSource)
	if !ok {
		return fmt.Errorf("instance %q has no %s clip", instanceName, entities.ClipSource)
	}
	dst, ok := inst.Effect.Clip(entities.ClipOutput)
	if !ok {
		return fmt.Errorf("instance %q has no %s clip", instanceName, entities.ClipOutput)
	}

	input, err := h.config.codec.Decode(inputPath)
	if err != nil {
		return err
	}
	extent := [2]float64{float64(input.Width()), float64(input.Height())}
	rowBytes := 0
	if layout != nil {
		extent = layout.ProjectDims
		rowBytes = layout.RowBytes
	}
	window, err := h.outputWindow(ctx, inst, input, extent, layout)
	if err != nil {
		return err
	}
	if layout != nil && layout.CropInputsToRoI {
		roi, err := h.regionsOfInterest(ctx, inst, extent, input.Bounds.Double(), window.Double())
		if err != nil {
			return err
		}
		if input = input.Crop(roi.Int()); input.Bounds.Empty() {
			return fmt.Errorf("region of interest %v does not overlap the input", roi)
		}
	}
	output, err := newOutput(window, rowBytes)
	if err != nil {
		return err
	}
	setProject(inst.Effect, extent[0], extent[1])

	suites := inst.Plugin.bundle.suites
	srcPtr, err := h.stage(ctx, suites, input)
	if err != nil {
		return err
	}
	defer h.unstage(ctx, suites, srcPtr)
	dstPtr, err := h.stage(ctx, suites, output)
	if err != nil {
		return err
	}
	defer h.unstage(ctx, suites, dstPtr)

	suites.BindImage(src, hostfuncs.ImageBinding{Image: input, Data: srcPtr})
	suites.BindImage(dst, hostfuncs.ImageBinding{Image: output, Data: dstPtr})
	inArgs := entities.NewPropertySet("render args",
		entities.Prop(entities.PropTime, entities.Double(0)),
		entities.Prop(entities.ImageEffectPropFieldToRender, entities.String(entities.ImageFieldNone)),
		entities.Prop(entities.ImageEffectPropRenderWindow, output.Bounds.Values()...),
		entities.Prop(entities.ImageEffectPropRenderScale, entities.Double(1), entities.Double(1)),
		entities.Prop(entities.ImageEffectPropSequentialRenderStatus, entities.Bool(false)),
		entities.Prop(entities.ImageEffectPropInteractiveRenderStatus, entities.Bool(false)),
		entities.Prop(entities.ImageEffectPropRenderQualityDraft, entities.Bool(false)),
	)
	renderErr := h.callAction(ctx, inst.Plugin.Plugin, entities.ActionRender, instanceName, inst.Handle, inArgs)

	if leaked := suites.UnbindImages(inst.Handle, inst.Effect); leaked > 0 {
		h.logger.WarnContext(ctx, "plugin did not release images", "instance", instanceName, "images", leaked)
	}
	if renderErr != nil {
		return renderErr
	}
	if err := readPixels(suites.Mem(), dstPtr, output); err != nil {
		return &errors.DefectError{Message: err.Error()}
	}
	return h.config.codec.Encode(output, outputPath)
}

// outputWindow picks the pixels to render: the whole project without a
// layout, else the layout's render window, else the plugin's region of
// definition cropped to the project.
func (h *Host) outputWindow(ctx context.Context, inst *Instance, input *entities.Image, extent [2]float64, layout *entities.RenderLayout) (entities.RectI, error) {
	project := entities.RectD{X2: extent[0], Y2: extent[1]}.Int()
	switch {
	case layout == nil:
		return project, nil
	case layout.RenderWindow != nil:
		return *layout.RenderWindow, nil
	}
	rod, err := h.regionOfDefinition(ctx, inst, extent, input.Bounds.Double())
	if err != nil {
		return entities.RectI{}, err
	}
	return rod.Int().Crop(project), nil
}

// newOutput allocates the output image. It must fit in 32-bit plugin
// memory.
func newOutput(window entities.RectI, rowBytes int) (*entities.Image, error) {
	if window.Empty() {
		return nil, fmt.Errorf("output window %v is empty", window)
	}
	w := int64(window.X2) - int64(window.X1)
	stride := max(int64(rowBytes/entities.BytesPerPixel), w)
	if size := stride * (int64(window.Y2) - int64(window.Y1)) * entities.BytesPerPixel; size > math.MaxUint32 {
		return nil, fmt.Errorf("output window %v needs %d bytes, more than plugin memory can address", window, size)
	}
	return entities.NewImageIn(window, rowBytes), nil
}

// stage copies img into a new buffer in plugin memory.
func (h *Host) stage(ctx context.Context, suites *hostfuncs.Suites, img *entities.Image) (uint32, error) {
	size := img.ByteSize()
	if size <= 0 || uint64(size) > math.MaxUint32 {
		return 0, fmt.Errorf("image of %dx%d cannot be staged", img.Width(), img.Height())
	}
	ptr, err := suites.Allocator().Allocate(ctx, uint32(size))
	if err != nil {
		return 0, fmt.Errorf("allocate %d byte image buffer: %w", size, err)
	}
	buf := make([]byte, size)
	for i, f := range img.Pixels {
		binary.LittleEndian.PutUint32(buf[i*entities.BytesPerComponent:], math.Float32bits(f))
	}
	if !suites.Mem().Write(ptr, buf) {
		_ = suites.Allocator().Free(ctx, ptr)
		return 0, stdErrors.New("image buffer out of plugin memory bounds")
	}
	return ptr, nil
}

// unstage frees a staged buffer and collects suite allocations owned by
// handles that are no longer live.
func (h *Host) unstage(ctx context.Context, suites *hostfuncs.Suites, ptr uint32) {
	if err := suites.Allocator().Free(ctx, ptr); err != nil {
		h.logger.WarnContext(ctx, "failed to free image buffer", "ptr", ptr, "error", err)
	}
	suites.Collect(ctx)
}

func readPixels(mem ports.Memory, ptr uint32, img *entities.Image) error {
	buf, ok := mem.Read(ptr, uint32(img.ByteSize()))
	if !ok {
		return fmt.Errorf("output buffer at 0x%x out of plugin memory bounds", ptr)
	}
	for i := range img.Pixels {
		img.Pixels[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*entities.BytesPerComponent:]))
	}
	return nil
}
