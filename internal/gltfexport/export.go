// Package gltfexport writes an import plan as a glTF 2.0 document.
//
// The plan is Z-up; glTF is Y-up with -Z forward, so positions map
// (x, y, z) -> (x, z, -y). Lights, colliders, tags and animation actions
// have no core glTF equivalent and are stored in node extras.
package gltfexport

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/mu-import/internal/importer"
	"github.com/Faultbox/mu-import/internal/textures"
	"github.com/Faultbox/mu-import/pkg/math"
)

// Shader properties mapped onto the metallic-roughness model.
const (
	propColor   = "_Color"
	propMainTex = "_MainTex"
)

// Options controls export.
type Options struct {
	// EmbedTextures writes loaded texture images into the document buffer
	// as PNG. Without it materials keep only their factors.
	EmbedTextures bool
	Logger        *zap.Logger
}

type exporter struct {
	opts Options
	log  *zap.Logger
	doc  *gltf.Document

	materials map[*importer.Material]int
	images    map[*textures.Image]int
}

// Export converts a planned scene.
func Export(scene *importer.Scene, opts Options) (*gltf.Document, error) {
	if scene == nil || scene.Root == nil {
		return nil, fmt.Errorf("gltf export: empty scene")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	e := &exporter{
		opts:      opts,
		log:       log,
		doc:       gltf.NewDocument(),
		materials: make(map[*importer.Material]int),
		images:    make(map[*textures.Image]int),
	}
	e.doc.Asset.Generator = "mutool"

	for _, mat := range scene.Materials {
		if err := e.material(mat); err != nil {
			return nil, err
		}
	}
	root := e.node(scene.Root)
	e.doc.Scenes[0].Nodes = append(e.doc.Scenes[0].Nodes, root)

	log.Debug("exported glTF",
		zap.Int("nodes", len(e.doc.Nodes)),
		zap.Int("meshes", len(e.doc.Meshes)),
		zap.Int("materials", len(e.doc.Materials)),
		zap.Int("images", len(e.doc.Images)))
	return e.doc, nil
}

// Save writes doc to path, binary when the extension is .glb. A text
// document gets its buffers inlined as data URIs.
func Save(doc *gltf.Document, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		return gltf.SaveBinary(doc, path)
	}
	for _, b := range doc.Buffers {
		if b.URI == "" {
			b.EmbeddedResource()
		}
	}
	return gltf.Save(doc, path)
}

func gltfVector(v [3]float32) [3]float64 {
	return [3]float64{float64(v[0]), float64(v[2]), -float64(v[1])}
}

func gltfScale(v [3]float32) [3]float64 {
	return [3]float64{float64(v[0]), float64(v[2]), float64(v[1])}
}

func gltfRotation(q math.Quat) [4]float64 {
	q = q.Normalize()
	return [4]float64{float64(q.X), float64(q.Z), -float64(q.Y), float64(q.W)}
}

func gltfVectors(src [][3]float32) [][3]float32 {
	out := make([][3]float32, len(src))
	for i, v := range src {
		out[i] = [3]float32{v[0], v[2], -v[1]}
	}
	return out
}

func (e *exporter) node(obj *importer.Object) int {
	n := &gltf.Node{
		Name:        obj.Name,
		Translation: gltfVector(obj.Location),
		Rotation:    gltfRotation(obj.Rotation),
		Scale:       gltfScale(obj.Scale),
	}
	extras := objectExtras(obj)

	switch {
	case obj.Kind == importer.KindMesh && obj.Mesh != nil:
		n.Mesh = gltf.Index(e.mesh(obj.Mesh))
	case obj.Kind == importer.KindCamera:
		n.Camera = gltf.Index(e.camera(obj))
	case obj.Kind == importer.KindCollider && obj.Mesh != nil:
		// Collision meshes stay out of the rendered scene.
		extras["mu_collider_mesh"] = e.mesh(obj.Mesh)
	}
	if len(extras) > 0 {
		n.Extras = extras
	}

	idx := len(e.doc.Nodes)
	e.doc.Nodes = append(e.doc.Nodes, n)
	for _, child := range obj.Children {
		n.Children = append(n.Children, e.node(child))
	}
	return idx
}

func (e *exporter) mesh(src *importer.Mesh) int {
	attrs := map[string]int{
		"POSITION": modeler.WritePosition(e.doc, gltfVectors(src.Vertices)),
	}
	if len(src.Normals) == len(src.Vertices) && len(src.Normals) > 0 {
		attrs["NORMAL"] = modeler.WriteNormal(e.doc, gltfVectors(src.Normals))
	}
	for i, layer := range src.UVLayers {
		uv := src.Source.UV(layer.Channel)
		flipped := make([][2]float32, len(uv))
		for j, c := range uv {
			flipped[j] = [2]float32{c[0], 1 - c[1]}
		}
		attrs[fmt.Sprintf("TEXCOORD_%d", i)] = modeler.WriteTextureCoord(e.doc, flipped)
	}

	m := &gltf.Mesh{Name: src.Name}
	for i, sm := range src.Source.Submeshes {
		if len(sm) == 0 {
			continue
		}
		indices := make([]uint32, len(sm))
		for j, v := range sm {
			indices[j] = uint32(v)
		}
		prim := &gltf.Primitive{
			Attributes: attrs,
			Indices:    gltf.Index(modeler.WriteIndices(e.doc, indices)),
		}
		if i < len(src.Materials) {
			if mi, ok := e.materials[src.Materials[i]]; ok {
				prim.Material = gltf.Index(mi)
			}
		}
		m.Primitives = append(m.Primitives, prim)
	}

	e.doc.Meshes = append(e.doc.Meshes, m)
	return len(e.doc.Meshes) - 1
}

func (e *exporter) material(mat *importer.Material) error {
	pbr := &gltf.PBRMetallicRoughness{
		MetallicFactor:  gltf.Float(0),
		RoughnessFactor: gltf.Float(1),
	}
	if c, ok := mat.Source.Colors.Get(propColor); ok {
		pbr.BaseColorFactor = &[4]float64{float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3])}
	}

	slots := make([]map[string]any, 0, len(mat.Textures))
	for _, slot := range mat.Textures {
		slots = append(slots, map[string]any{
			"property": slot.Property,
			"texture":  slot.Texture,
			"scale":    slot.Scale,
			"offset":   slot.Offset,
		})
		if slot.Property != propMainTex || slot.Image == nil || !e.opts.EmbedTextures {
			continue
		}
		tex, err := e.texture(slot.Image)
		if err != nil {
			return fmt.Errorf("material %q: %w", mat.Name, err)
		}
		pbr.BaseColorTexture = &gltf.TextureInfo{Index: tex}
	}

	m := &gltf.Material{
		Name:                 mat.Name,
		PBRMetallicRoughness: pbr,
		Extras: map[string]any{
			"mu_shader":   mat.Shader,
			"mu_textures": slots,
		},
	}
	e.materials[mat] = len(e.doc.Materials)
	e.doc.Materials = append(e.doc.Materials, m)
	return nil
}

func (e *exporter) texture(img *textures.Image) (int, error) {
	if idx, ok := e.images[img]; ok {
		return idx, nil
	}
	var buf bytes.Buffer
	if err := textures.Encode(&buf, img, textures.FormatPNG); err != nil {
		return 0, fmt.Errorf("texture %q: %w", img.Name, err)
	}
	imgIdx, err := modeler.WriteImage(e.doc, img.Name, "image/png", &buf)
	if err != nil {
		return 0, fmt.Errorf("texture %q: %w", img.Name, err)
	}
	e.doc.Textures = append(e.doc.Textures, &gltf.Texture{Source: gltf.Index(imgIdx)})
	idx := len(e.doc.Textures) - 1
	e.images[img] = idx
	e.log.Debug("embedded texture", zap.String("name", img.Name), zap.Int("index", idx))
	return idx, nil
}

func (e *exporter) camera(obj *importer.Object) int {
	src := obj.Camera
	cam := &gltf.Camera{Name: obj.Name}
	if src.Type == "ORTHO" {
		cam.Orthographic = &gltf.Orthographic{
			Xmag:  1,
			Ymag:  1,
			Znear: float64(src.ClipStart),
			Zfar:  float64(src.ClipEnd),
		}
	} else {
		cam.Perspective = &gltf.Perspective{
			Yfov:  float64(src.Angle),
			Znear: float64(src.ClipStart),
		}
		if src.ClipEnd > 0 {
			cam.Perspective.Zfar = gltf.Float(float64(src.ClipEnd))
		}
	}
	e.doc.Cameras = append(e.doc.Cameras, cam)
	return len(e.doc.Cameras) - 1
}
