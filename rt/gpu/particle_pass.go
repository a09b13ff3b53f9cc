package gpu

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/sparks/rt/assets"
	"github.com/gekko3d/sparks/rt/core"
	"github.com/gekko3d/sparks/rt/render"
	"github.com/gekko3d/sparks/rt/shaders"
	"github.com/gekko3d/sparks/rt/sim"
	"github.com/go-gl/mathgl/mgl32"
)

// cameraUniform matches struct Camera in both particle shaders.
type cameraUniform struct {
	ProjView mgl32.Mat4
	View     mgl32.Mat4
	Viewport [4]float32
}

const cameraUniformSize = uint64(unsafe.Sizeof(cameraUniform{}))

type pipelineKey struct {
	rep   render.Representation
	blend sim.BlendMode
}

type gpuTexture struct {
	texture   *wgpu.Texture
	view      *wgpu.TextureView
	bindGroup *wgpu.BindGroup
	version   uint
}

// ParticlePass is the WebGPU side of the particle renderer. It owns one
// pipeline per representation and blend mode, the particle buffers and a
// cache of uploaded arena textures. Draw records into the pass set by Begin.
type ParticlePass struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue
	Format wgpu.TextureFormat
	Arena  *assets.TextureArena

	pipelines       map[pipelineKey]*wgpu.RenderPipeline
	cameraBGL       *wgpu.BindGroupLayout
	textureBGL      *wgpu.BindGroupLayout
	pointsLayout    *wgpu.PipelineLayout
	billboardLayout *wgpu.PipelineLayout

	cameraBuffer    *wgpu.Buffer
	cameraBindGroup *wgpu.BindGroup
	sampler         *wgpu.Sampler

	InstanceBuffer *wgpu.Buffer
	InstanceCap    uint32
	VertexBuffer   *wgpu.Buffer
	VertexCap      uint32

	textures map[assets.TextureId]*gpuTexture
	pass     *wgpu.RenderPassEncoder
}

var _ render.Backend = (*ParticlePass)(nil)

// NewParticlePass creates layouts, the camera buffer and the sampler.
// Pipelines are built by Reload.
func NewParticlePass(device *wgpu.Device, format wgpu.TextureFormat, arena *assets.TextureArena) (*ParticlePass, error) {
	p := &ParticlePass{
		Device:    device,
		Queue:     device.GetQueue(),
		Format:    format,
		Arena:     arena,
		pipelines: make(map[pipelineKey]*wgpu.RenderPipeline),
		textures:  make(map[assets.TextureId]*gpuTexture),
	}

	var err error
	p.cameraBGL, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "ParticleCameraBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: cameraUniformSize,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	p.textureBGL, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "ParticleTextureBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	p.pointsLayout, err = device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "ParticlePointsLayout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.cameraBGL},
	})
	if err != nil {
		return nil, err
	}
	p.billboardLayout, err = device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "ParticleBillboardLayout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.cameraBGL, p.textureBGL},
	})
	if err != nil {
		return nil, err
	}

	p.cameraBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ParticleCameraBuffer",
		Size:  cameraUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	p.cameraBindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "ParticleCameraBG",
		Layout: p.cameraBGL,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.cameraBuffer, Size: cameraUniformSize},
		},
	})
	if err != nil {
		return nil, err
	}

	p.sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Begin binds the render pass that subsequent Draw calls record into.
func (p *ParticlePass) Begin(pass *wgpu.RenderPassEncoder) { p.pass = pass }

func (p *ParticlePass) End() { p.pass = nil }

// Reload compiles both programs and rebuilds all four pipelines. The
// previous pipelines stay in place unless every new one was created.
func (p *ParticlePass) Reload(src shaders.Sources) error {
	pointsModule, err := p.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "ParticlePointsShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.Points},
	})
	if err != nil {
		return fmt.Errorf("points shader module: %w", err)
	}
	defer pointsModule.Release()

	billboardModule, err := p.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "ParticleBillboardShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.Billboard},
	})
	if err != nil {
		return fmt.Errorf("billboard shader module: %w", err)
	}
	defer billboardModule.Release()

	next := make(map[pipelineKey]*wgpu.RenderPipeline, 4)
	release := func() {
		for _, pl := range next {
			pl.Release()
		}
	}
	for _, blend := range []sim.BlendMode{sim.BlendAlpha, sim.BlendAdditive} {
		pl, err := p.createPointsPipeline(pointsModule, blend)
		if err != nil {
			release()
			return fmt.Errorf("points pipeline (%s): %w", blend, err)
		}
		next[pipelineKey{render.RepresentationPoints, blend}] = pl

		pl, err = p.createBillboardPipeline(billboardModule, blend)
		if err != nil {
			release()
			return fmt.Errorf("billboard pipeline (%s): %w", blend, err)
		}
		next[pipelineKey{render.RepresentationBillboards, blend}] = pl
	}

	for _, current := range p.pipelines {
		current.Release()
	}
	p.pipelines = next
	return nil
}

func blendState(mode sim.BlendMode) *wgpu.BlendState {
	if mode == sim.BlendAdditive {
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOne,
			},
			Alpha: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
			},
		}
	}
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			Operation: wgpu.BlendOperationAdd,
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		},
		Alpha: wgpu.BlendComponent{
			Operation: wgpu.BlendOperationAdd,
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		},
	}
}

func (p *ParticlePass) createPointsPipeline(module *wgpu.ShaderModule, blend sim.BlendMode) (*wgpu.RenderPipeline, error) {
	return p.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "ParticlePoints_" + string(blend),
		Layout: p.pointsLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(unsafe.Sizeof(core.ParticleInstance{})),
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
						{Format: wgpu.VertexFormatFloat32, Offset: 12, ShaderLocation: 1},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
						{Format: wgpu.VertexFormatFloat32, Offset: 32, ShaderLocation: 3},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{Format: p.Format, WriteMask: wgpu.ColorWriteMaskAll, Blend: blendState(blend)},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: nil,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
}

func (p *ParticlePass) createBillboardPipeline(module *wgpu.ShaderModule, blend sim.BlendMode) (*wgpu.RenderPipeline, error) {
	return p.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "ParticleBillboard_" + string(blend),
		Layout: p.billboardLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(unsafe.Sizeof(core.BillboardVertex{})),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
						{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 20, ShaderLocation: 2},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{Format: p.Format, WriteMask: wgpu.ColorWriteMaskAll, Blend: blendState(blend)},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		// Unsorted transparency: no depth test for billboards.
		DepthStencil: nil,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
}

// UploadInstances writes the point records, growing the buffer as needed.
func (p *ParticlePass) UploadInstances(instances []core.ParticleInstance) error {
	if len(instances) == 0 {
		return nil
	}
	count := uint32(len(instances))
	stride := uint64(unsafe.Sizeof(core.ParticleInstance{}))
	if p.InstanceBuffer == nil || p.InstanceCap < count {
		if p.InstanceBuffer != nil {
			p.InstanceBuffer.Release()
		}
		p.InstanceCap = count + count/2
		buf, err := p.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "ParticleInstanceBuffer",
			Size:  uint64(p.InstanceCap) * stride,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			p.InstanceBuffer, p.InstanceCap = nil, 0
			return err
		}
		p.InstanceBuffer = buf
	}
	return p.Queue.WriteBuffer(p.InstanceBuffer, 0, wgpu.ToBytes(instances))
}

// UploadVertices writes the billboard vertices, growing the buffer as needed.
func (p *ParticlePass) UploadVertices(vertices []core.BillboardVertex) error {
	if len(vertices) == 0 {
		return nil
	}
	count := uint32(len(vertices))
	stride := uint64(unsafe.Sizeof(core.BillboardVertex{}))
	if p.VertexBuffer == nil || p.VertexCap < count {
		if p.VertexBuffer != nil {
			p.VertexBuffer.Release()
		}
		p.VertexCap = count + count/2
		buf, err := p.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "ParticleVertexBuffer",
			Size:  uint64(p.VertexCap) * stride,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			p.VertexBuffer, p.VertexCap = nil, 0
			return err
		}
		p.VertexBuffer = buf
	}
	return p.Queue.WriteBuffer(p.VertexBuffer, 0, wgpu.ToBytes(vertices))
}

// Draw records one draw per batch into the pass set by Begin.
func (p *ParticlePass) Draw(rep render.Representation, u render.Uniforms, batches []render.DrawBatch) error {
	if p.pass == nil {
		return errors.New("particle pass: no render pass bound")
	}
	cam := cameraUniform{
		ProjView: u.ProjView,
		View:     u.View,
		Viewport: [4]float32{u.Viewport[0], u.Viewport[1], 0, 0},
	}
	if err := p.Queue.WriteBuffer(p.cameraBuffer, 0, wgpu.ToBytes([]cameraUniform{cam})); err != nil {
		return err
	}

	billboards := rep == render.RepresentationBillboards
	if billboards && p.VertexBuffer == nil || !billboards && p.InstanceBuffer == nil {
		return nil
	}

	for _, b := range batches {
		if b.Count <= 0 {
			continue
		}
		pipeline := p.pipelines[pipelineKey{rep, b.Blend.Normalize()}]
		if pipeline == nil {
			return fmt.Errorf("particle pass: no pipeline for %s/%s", rep, b.Blend)
		}
		p.pass.SetPipeline(pipeline)
		p.pass.SetBindGroup(0, p.cameraBindGroup, nil)

		if billboards {
			tex, err := p.texture(b.Texture)
			if err != nil {
				return err
			}
			p.pass.SetBindGroup(1, tex.bindGroup, nil)
			p.pass.SetVertexBuffer(0, p.VertexBuffer, 0, p.VertexBuffer.GetSize())
			p.pass.Draw(uint32(b.Count*core.VerticesPerBillboard), 1, uint32(b.First*core.VerticesPerBillboard), 0)
		} else {
			p.pass.SetVertexBuffer(0, p.InstanceBuffer, 0, p.InstanceBuffer.GetSize())
			p.pass.Draw(core.VerticesPerBillboard, uint32(b.Count), 0, uint32(b.First))
		}
	}
	return nil
}

// texture returns the GPU copy of an arena texture, uploading it on first
// use and again whenever the arena entry's version changes.
func (p *ParticlePass) texture(id assets.TextureId) (*gpuTexture, error) {
	if p.Arena == nil {
		return nil, errors.New("particle pass: no texture arena")
	}
	id = p.Arena.Resolve(id)
	src, _ := p.Arena.Get(id)

	if cached, ok := p.textures[id]; ok && cached.version == src.Version {
		return cached, nil
	} else if ok {
		cached.release()
		delete(p.textures, id)
	}

	extent := wgpu.Extent3D{Width: src.Width, Height: src.Height, DepthOrArrayLayers: 1}
	tex, err := p.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "ParticleTexture_" + src.Name,
		Size:          extent,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("create particle texture %q: %w", src.Name, err)
	}
	if err := p.Queue.WriteTexture(tex.AsImageCopy(), src.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  src.Width * 4,
		RowsPerImage: src.Height,
	}, &extent); err != nil {
		tex.Release()
		return nil, fmt.Errorf("upload particle texture %q: %w", src.Name, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	bg, err := p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "ParticleTextureBG",
		Layout: p.textureBGL,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: p.sampler},
		},
	})
	if err != nil {
		view.Release()
		tex.Release()
		return nil, err
	}

	gt := &gpuTexture{texture: tex, view: view, bindGroup: bg, version: src.Version}
	p.textures[id] = gt
	return gt, nil
}

func (t *gpuTexture) release() {
	t.bindGroup.Release()
	t.view.Release()
	t.texture.Release()
}

// Release frees every GPU object owned by the pass.
func (p *ParticlePass) Release() {
	for id, t := range p.textures {
		t.release()
		delete(p.textures, id)
	}
	for k, pl := range p.pipelines {
		pl.Release()
		delete(p.pipelines, k)
	}
	if p.InstanceBuffer != nil {
		p.InstanceBuffer.Release()
		p.InstanceBuffer = nil
	}
	if p.VertexBuffer != nil {
		p.VertexBuffer.Release()
		p.VertexBuffer = nil
	}
	p.cameraBindGroup.Release()
	p.cameraBuffer.Release()
	p.sampler.Release()
	p.pointsLayout.Release()
	p.billboardLayout.Release()
	p.cameraBGL.Release()
	p.textureBGL.Release()
}
