package importer

import (
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/mu-import/internal/textures"
	"github.com/Faultbox/mu-import/pkg/formats"
	"github.com/Faultbox/mu-import/pkg/math"
)

// Options controls planning.
type Options struct {
	CreateColliders bool
	// Location replaces the root object's location.
	Location   [3]float32
	FPS        float32
	FrameStart float32
	// Images holds decoded textures index-aligned with the model's texture
	// table. It may be nil or contain nil slots.
	Images []*textures.Image
	Logger *zap.Logger
}

// DefaultOptions returns the planner defaults: colliders on, root at the
// origin, 24 fps starting at frame 1.
func DefaultOptions() Options {
	return Options{CreateColliders: true, FPS: 24, FrameStart: 1}
}

// hostAxisCorrection turns a +Z-forward light or camera into a -Z-forward
// one: +90 degrees about local X.
var hostAxisCorrection = math.QuatFromAxisAngle(math.Vec3{X: 1}, math32.Pi/2)

type planner struct {
	opts  Options
	log   *zap.Logger
	scene *Scene
	mu    *formats.Mu
}

// Build plans the host objects for a decoded model.
func Build(mu *formats.Mu, opts Options) (*Scene, error) {
	if mu == nil || mu.Root == nil {
		return nil, fmt.Errorf("%w: model has no root node", formats.ErrUnrecognizedFormat)
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %v", opts.FPS)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if mu.ObjectPaths == nil {
		formats.BuildPaths(mu)
	}

	p := &planner{
		opts: opts,
		log:  log,
		mu:   mu,
		scene: &Scene{
			model:   mu,
			objects: make(map[*formats.MuNode]*Object),
		},
	}

	p.createMaterials()
	root := p.createObject(mu.Root, nil)
	root.Location = opts.Location
	p.scene.Root = root
	p.scene.Stats = computeStats(p.scene)

	log.Debug("planned scene",
		zap.Int("objects", len(p.scene.Objects)),
		zap.Int("materials", len(p.scene.Materials)),
		zap.Int("actions", len(p.scene.Actions)),
		zap.Int("warnings", len(p.scene.Warnings)))
	return p.scene, nil
}

func (p *planner) warn(err error, fields ...zap.Field) {
	p.scene.Warnings = append(p.scene.Warnings, err)
	p.log.Warn(err.Error(), fields...)
}

func (p *planner) createMaterials() {
	p.scene.Materials = make([]*Material, len(p.mu.Materials))
	for i, src := range p.mu.Materials {
		mat := &Material{Name: src.Name, Shader: src.Shader, Source: src}
		for _, prop := range src.Textures {
			slot := TextureSlot{
				Property: prop.Name,
				Index:    prop.Value.Index,
				Scale:    prop.Value.Scale,
				Offset:   prop.Value.Offset,
			}
			// Dangling indices were already reported by the decoder.
			if tex, err := p.mu.Texture(prop.Value); err == nil {
				slot.Texture = tex.Name
				if int(slot.Index) < len(p.opts.Images) {
					slot.Image = p.opts.Images[slot.Index]
				}
			}
			mat.Textures = append(mat.Textures, slot)
		}
		p.scene.Materials[i] = mat
	}
}

// material returns the planned material for a renderer slot, or nil.
func (p *planner) material(r *formats.MuRenderer, slot int) *Material {
	if slot >= len(r.MaterialIndices) {
		return nil
	}
	idx := r.MaterialIndices[slot]
	if idx < 0 || int(idx) >= len(p.scene.Materials) {
		return nil
	}
	return p.scene.Materials[idx]
}

func (p *planner) createObject(node *formats.MuNode, parent *Object) *Object {
	var obj *Object

	switch {
	case node.Mesh != nil:
		obj = p.meshObject(node, node.Mesh)
	case node.SkinnedMeshRenderer != nil:
		smr := node.SkinnedMeshRenderer
		obj = p.meshObject(node, smr.Mesh)
		if mat := p.material(&smr.MuRenderer, 0); mat != nil {
			obj.Mesh.Materials = append(obj.Mesh.Materials, mat)
		}
	}
	if node.Renderer != nil && obj != nil {
		if mat := p.material(node.Renderer, 0); mat != nil {
			obj.Mesh.Materials = append(obj.Mesh.Materials, mat)
		}
	}
	if obj == nil {
		// A node with both keeps the camera.
		if node.Light != nil {
			obj = p.lightObject(node)
		}
		if node.Camera != nil {
			obj = p.cameraObject(node)
		}
	}
	if obj == nil {
		obj = p.transformObject(node, KindEmpty)
	}

	if node.TagLayer != nil {
		obj.Tag = node.TagLayer.Tag
		obj.Layer = node.TagLayer.Layer
	}

	obj.Parent = parent
	if parent != nil {
		parent.Children = append(parent.Children, obj)
	}
	p.scene.Objects = append(p.scene.Objects, obj)
	p.scene.objects[node] = obj

	if p.opts.CreateColliders && node.Collider != nil {
		p.createCollider(node, obj)
	}
	for _, child := range node.Children {
		p.createObject(child, obj)
	}
	if node.Animation != nil {
		for _, clip := range node.Animation.Clips {
			p.createActions(node, clip)
		}
	}
	return obj
}

func (p *planner) transformObject(node *formats.MuNode, kind ObjectKind) *Object {
	return &Object{
		Name:     node.Name,
		Path:     node.Path,
		Kind:     kind,
		Location: hostVector(node.Transform.Position),
		Rotation: hostQuat(node.Transform.Rotation),
		Scale:    hostVector(node.Transform.Scale),
		Node:     node,
	}
}

func (p *planner) meshObject(node *formats.MuNode, src *formats.MuMesh) *Object {
	obj := p.transformObject(node, KindMesh)
	obj.Mesh = newMesh(node.Name, src)
	obj.Mesh.Smooth = true
	return obj
}

func newMesh(name string, src *formats.MuMesh) *Mesh {
	mesh := &Mesh{
		Name:     name,
		Source:   src,
		Vertices: hostVectors(src.Vertices),
		Normals:  hostVectors(src.Normals),
	}
	for _, ch := range src.UVChannels {
		mesh.UVLayers = append(mesh.UVLayers, UVLayer{Name: uvLayerName(name, ch), Channel: ch})
	}
	return mesh
}

func uvLayerName(mesh string, channel int) string {
	if channel == 0 {
		return mesh + ".UV"
	}
	return fmt.Sprintf("%s.UV%d", mesh, channel+1)
}
