package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/target"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/rs/zerolog"
)

// wgpuTarget is an offscreen target backed by an rgba32float texture and an optional
// Depth24Plus texture.
type wgpuTarget struct {
	target.Base

	texture      *wgpu.Texture
	view         *wgpu.TextureView
	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView
}

// wgpuPass holds the GPU objects created for a registered pass.
type wgpuPass struct {
	pass pass.Pass

	pipeline         *wgpu.RenderPipeline
	bindGroupLayouts map[int]*wgpu.BindGroupLayout
	uniformBuffers   map[[2]int]*wgpu.Buffer
	vertexBuffer     *wgpu.Buffer
	indexBuffer      *wgpu.Buffer
	indexCount       uint32

	// bind groups keyed by group index and the keys of the bound input targets
	bindGroups map[string]*wgpu.BindGroup
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	logger zerolog.Logger

	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat    wgpu.TextureFormat
	screenWidth      int
	screenHeight     int
	depthTexture     *wgpu.Texture
	depthTextureView *wgpu.TextureView

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)

	passes  map[string]*wgpuPass
	targets map[*wgpuTarget]struct{}

	// Frame state: the acquired swapchain texture lives from BeginFrame to Present
	inFrame      bool
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend creates the instance, surface, adapter, device and queue.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor from the window
//   - forceFallbackAdapter: request the CPU fallback adapter
//   - logger: the component logger
//
// Returns:
//   - *wgpuRendererBackendImpl: the backend
//   - error: if no adapter or device can be acquired
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, logger zerolog.Logger) (*wgpuRendererBackendImpl, error) {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		logger:      logger,
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		passes:      make(map[string]*wgpuPass),
		targets:     make(map[*wgpuTarget]struct{}),
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()

	capabilities := w.surface.GetCapabilities(w.adapter)
	if len(capabilities.Formats) == 0 {
		return nil, errors.New("surface reports no formats")
	}
	w.surfaceFormat = capabilities.Formats[0]
	return w, nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if width <= 0 || height <= 0 {
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTexture.Release()
	}
	depthTexture, depthView, err := b.createTexture("Screen Depth", width, height, wgpu.TextureFormatDepth24Plus, wgpu.TextureUsageRenderAttachment)
	if err != nil {
		b.logger.Error().Err(err).Msg("screen depth texture")
		return
	}
	b.depthTexture, b.depthTextureView = depthTexture, depthView
	b.screenWidth, b.screenHeight = width, height
}

func (b *wgpuRendererBackendImpl) ScreenSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.screenWidth, b.screenHeight
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) AllocateTarget(spec target.Spec) (target.Target, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	t := &wgpuTarget{Base: target.NewBase(spec)}
	var err error
	t.texture, t.view, err = b.createTexture(spec.Key, spec.Width, spec.Height, wgpu.TextureFormatRGBA32Float,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopySrc|wgpu.TextureUsageCopyDst)
	if err != nil {
		return nil, err
	}
	if spec.Depth {
		t.depthTexture, t.depthView, err = b.createTexture(spec.Key+" Depth", spec.Width, spec.Height, wgpu.TextureFormatDepth24Plus, wgpu.TextureUsageRenderAttachment)
		if err != nil {
			t.view.Release()
			t.texture.Release()
			return nil, err
		}
	}
	b.targets[t] = struct{}{}
	return t, nil
}

func (b *wgpuRendererBackendImpl) ReleaseTarget(t target.Target) {
	wt, ok := t.(*wgpuTarget)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, owned := b.targets[wt]; !owned {
		return
	}
	delete(b.targets, wt)
	for _, p := range b.passes {
		for key, bg := range p.bindGroups {
			if strings.Contains(key, "="+wt.Key()+"|") {
				bg.Release()
				delete(p.bindGroups, key)
			}
		}
	}
	if wt.depthView != nil {
		wt.depthView.Release()
		wt.depthTexture.Release()
	}
	wt.view.Release()
	wt.texture.Release()
}

func (b *wgpuRendererBackendImpl) RegisterPass(p pass.Pass) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	program := p.Program()
	vertexShader, fragmentShader := program.Vertex(), program.Fragment()

	vs, err := b.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return err
	}
	fs, err := b.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return err
	}

	wp := &wgpuPass{
		pass:             p,
		bindGroupLayouts: make(map[int]*wgpu.BindGroupLayout),
		uniformBuffers:   make(map[[2]int]*wgpu.Buffer),
		bindGroups:       make(map[string]*wgpu.BindGroup),
	}

	merged := program.BindGroupLayoutDescriptors()
	maxGroup := -1
	for g := range merged {
		maxGroup = max(maxGroup, g)
	}
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g, desc := range merged {
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		bindGroupLayouts[g] = layout
		wp.bindGroupLayouts[g] = layout
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.Key(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return err
	}

	var vertexLayouts []wgpu.VertexBufferLayout
	if l, ok := vertexShader.VertexLayout(); ok {
		vertexLayouts = append(vertexLayouts, l)
	}

	colorFormat := wgpu.TextureFormatRGBA32Float
	hasDepth := true
	if out := p.Output(); out == nil {
		colorFormat = b.surfaceFormat
	} else {
		hasDepth = out.HasDepth()
	}

	var depthStencil *wgpu.DepthStencilState
	if hasDepth {
		depthCompare := wgpu.CompareFunctionLess
		if !p.DepthTest() {
			depthCompare = wgpu.CompareFunctionAlways
		}
		depthStencil = &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: p.DepthTest(),
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	wp.pipeline, err = b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.Key() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets: []wgpu.ColorTargetState{{
				Format:    colorFormat,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpuCullMode(p.CullMode()),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return err
	}

	for _, l := range program.UniformLayouts() {
		buf, bufErr := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("%s Uniforms %d/%d", p.Key(), l.Group, l.Binding),
			Size:  l.Size,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if bufErr != nil {
			return bufErr
		}
		wp.uniformBuffers[[2]int{l.Group, l.Binding}] = buf
	}

	vertices, _ := p.Vertices()
	wp.vertexBuffer, err = b.createBuffer(p.Key()+" Vertex Buffer", common.SliceToBytes(vertices), wgpu.BufferUsageVertex)
	if err != nil {
		return err
	}
	wp.indexBuffer, err = b.createBuffer(p.Key()+" Index Buffer", common.SliceToBytes(p.Mesh().Indices), wgpu.BufferUsageIndex)
	if err != nil {
		return err
	}
	wp.indexCount = uint32(len(p.Mesh().Indices))

	b.passes[p.Key()] = wp
	b.logger.Debug().Str("pass", p.Key()).Str("program", program.Key()).Msg("pass registered")
	return nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inFrame {
		return ErrFrameInProgress
	}
	// A surface texture still held from an unpresented frame must not be acquired twice.
	if b.frameSurface != nil {
		b.releaseFrameSurface()
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	b.frameSurface = surfaceTexture
	b.frameView = view
	b.inFrame = true
	return nil
}

func (b *wgpuRendererBackendImpl) Clear(t target.Target, c common.Color) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return ErrNoFrame
	}

	colorView, depthView, err := b.attachments(t)
	if err != nil {
		return err
	}
	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       colorView,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)},
		}},
	}
	if depthView != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		}
	}
	return b.submitPass(desc, nil)
}

func (b *wgpuRendererBackendImpl) Draw(d pass.Draw) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return ErrNoFrame
	}

	wp, ok := b.passes[d.Pass.Key()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPassNotRegistered, d.Pass.Key())
	}
	colorView, depthView, err := b.attachments(d.Output)
	if err != nil {
		return err
	}

	for _, u := range d.Packed {
		if buf := wp.uniformBuffers[[2]int{u.Group, u.Binding}]; buf != nil {
			b.queue.WriteBuffer(buf, 0, u.Data)
		}
	}

	groups := make(map[int]*wgpu.BindGroup, len(wp.bindGroupLayouts))
	for g := range wp.bindGroupLayouts {
		bg, bgErr := b.bindGroup(wp, g, d.Inputs)
		if bgErr != nil {
			return bgErr
		}
		groups[g] = bg
	}

	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    colorView,
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		}},
	}
	if depthView != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:         depthView,
			DepthLoadOp:  wgpu.LoadOpLoad,
			DepthStoreOp: wgpu.StoreOpStore,
		}
	}
	return b.submitPass(desc, func(rp *wgpu.RenderPassEncoder) {
		rp.SetPipeline(wp.pipeline)
		for g, bg := range groups {
			rp.SetBindGroup(uint32(g), bg, nil)
		}
		rp.SetVertexBuffer(0, wp.vertexBuffer, 0, wgpu.WholeSize)
		rp.SetIndexBuffer(wp.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		rp.DrawIndexed(wp.indexCount, 1, 0, 0, 0)
	})
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return ErrNoFrame
	}
	b.inFrame = false
	return nil
}

func (b *wgpuRendererBackendImpl) AbortFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inFrame = false
	b.releaseFrameSurface()
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If no frame surface is held, nothing to present.
	if b.frameSurface == nil || b.inFrame {
		return
	}
	b.surface.Present()
	b.releaseFrameSurface()
}

func (b *wgpuRendererBackendImpl) ReadTarget(t target.Target) ([]float32, error) {
	if t == nil {
		return nil, ErrScreenReadback
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	wt, err := b.owned(t)
	if err != nil {
		return nil, err
	}

	width, height := uint32(wt.Width()), uint32(wt.Height())
	rowBytes := width * uint32(wt.Spec().Format.BytesPerTexel())
	paddedRow := alignRow(rowBytes)
	size := uint64(paddedRow) * uint64(height)

	staging, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: wt.Key() + " Readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	defer staging.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  wt.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: staging,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  paddedRow,
				RowsPerImage: height,
			},
		},
		&wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		return nil, err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	encoder.Release()

	var status wgpu.BufferMapAsyncStatus
	staging.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	})
	b.device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("map readback buffer for %s: status %d", wt.Key(), status)
	}

	mapped := staging.GetMappedRange(0, uint(size))
	out := make([]float32, 0, int(width*height)*4)
	for y := uint32(0); y < height; y++ {
		row := mapped[y*paddedRow : y*paddedRow+rowBytes]
		out = append(out, common.BytesToFloat32s(row)...)
	}
	staging.Unmap()
	return out, nil
}

func (b *wgpuRendererBackendImpl) WriteTarget(t target.Target, data []float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	wt, err := b.owned(t)
	if err != nil {
		return err
	}
	if len(data) != wt.Width()*wt.Height()*4 {
		return fmt.Errorf("%w: %s wants %d floats, got %d", ErrSizeMismatch, wt.Key(), wt.Width()*wt.Height()*4, len(data))
	}

	width, height := uint32(wt.Width()), uint32(wt.Height())
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  wt.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		common.SliceToBytes(data),
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  width * uint32(wt.Spec().Format.BytesPerTexel()),
			RowsPerImage: height,
		},
		&wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
	return nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrameSurface()
	for _, p := range b.passes {
		for _, bg := range p.bindGroups {
			bg.Release()
		}
		for _, buf := range p.uniformBuffers {
			buf.Release()
		}
		p.vertexBuffer.Release()
		p.indexBuffer.Release()
		p.pipeline.Release()
	}
	b.passes = make(map[string]*wgpuPass)
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTexture.Release()
		b.depthTextureView, b.depthTexture = nil, nil
	}
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.instance.Release()
}

// createTexture creates a single-sample 2D texture and its default view.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) createTexture(label string, width, height int, format wgpu.TextureFormat, usage wgpu.TextureUsage) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create texture %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("create view %s: %w", label, err)
	}
	return tex, view, nil
}

// createBuffer creates a buffer initialised with data.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) createBuffer(label string, data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             uint64(len(data)),
		Usage:            usage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// attachments returns the color and depth views a pass renders into; nil is the screen.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) attachments(t target.Target) (*wgpu.TextureView, *wgpu.TextureView, error) {
	if t == nil {
		if b.frameView == nil {
			return nil, nil, ErrNoFrame
		}
		return b.frameView, b.depthTextureView, nil
	}
	wt, err := b.owned(t)
	if err != nil {
		return nil, nil, err
	}
	return wt.view, wt.depthView, nil
}

// owned checks that t was allocated by this backend.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) owned(t target.Target) (*wgpuTarget, error) {
	wt, ok := t.(*wgpuTarget)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrForeignTarget, t.Key())
	}
	if _, owned := b.targets[wt]; !owned {
		return nil, fmt.Errorf("%w: %s", ErrForeignTarget, t.Key())
	}
	return wt, nil
}

// bindGroup returns the cached bind group of group g for the given inputs, creating it on
// first use. Uniform buffers are per pass, so only the input targets vary the key.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) bindGroup(wp *wgpuPass, g int, inputs []pass.Binding) (*wgpu.BindGroup, error) {
	program := wp.pass.Program()
	views := make(map[int]*wgpuTarget)
	var parts []string
	for _, in := range inputs {
		group, binding, ok := program.InputBinding(in.Role)
		if !ok || group != g {
			continue
		}
		wt, err := b.owned(in.Target)
		if err != nil {
			return nil, err
		}
		views[binding] = wt
		parts = append(parts, fmt.Sprintf("%d=%s|", binding, wt.Key()))
	}
	slices.Sort(parts)
	key := fmt.Sprintf("%d|", g) + strings.Join(parts, "")
	if bg, ok := wp.bindGroups[key]; ok {
		return bg, nil
	}

	desc := program.BindGroupLayoutDescriptors()[g]
	entries := make([]wgpu.BindGroupEntry, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		binding := int(e.Binding)
		if e.Texture.SampleType != wgpu.TextureSampleTypeUndefined {
			wt := views[binding]
			if wt == nil {
				return nil, fmt.Errorf("%w: pass %s binding %d/%d", pass.ErrMissingInput, wp.pass.Key(), g, binding)
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, TextureView: wt.view})
			continue
		}
		buf := wp.uniformBuffers[[2]int{g, binding}]
		if buf == nil {
			return nil, fmt.Errorf("pass %s: no buffer for binding %d/%d", wp.pass.Key(), g, binding)
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: e.Binding,
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   wp.pass.Key() + " Bind Group",
		Layout:  wp.bindGroupLayouts[g],
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	wp.bindGroups[key] = bg
	return bg, nil
}

// submitPass records one render pass into its own command buffer and submits it, so
// uniform writes and texture reads follow submission order.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) submitPass(desc *wgpu.RenderPassDescriptor, record func(rp *wgpu.RenderPassEncoder)) error {
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	rp := encoder.BeginRenderPass(desc)
	if record != nil {
		record(rp)
	}
	rp.End()
	rp.Release()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	encoder.Release()
	return nil
}

// releaseFrameSurface drops the acquired swapchain texture.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) releaseFrameSurface() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func wgpuCullMode(c pass.CullMode) wgpu.CullMode {
	switch c {
	case pass.CullFront:
		return wgpu.CullModeFront
	case pass.CullBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

// alignRow rounds a row size up to the 256-byte copy alignment.
func alignRow(n uint32) uint32 {
	const alignment = 256
	return (n + alignment - 1) / alignment * alignment
}
