// mutool inspects Kerbal Space Program Mu models and converts them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/mu-import/internal/config"
	"github.com/Faultbox/mu-import/internal/gltfexport"
	"github.com/Faultbox/mu-import/internal/importer"
	"github.com/Faultbox/mu-import/internal/logger"
	"github.com/Faultbox/mu-import/internal/textures"
	"github.com/Faultbox/mu-import/pkg/encoding"
	"github.com/Faultbox/mu-import/pkg/formats"
)

// errUsage marks bad command lines; the usage text has already been printed.
var errUsage = errors.New("usage")

type command struct {
	run   func(cfg *config.Config, args []string) error
	usage string
}

var commands = map[string]command{
	"info":     {cmdInfo, "info <file.mu>"},
	"tree":     {cmdTree, "tree <file.mu>"},
	"paths":    {cmdPaths, "paths <file.mu>"},
	"anim":     {cmdAnim, "anim <file.mu>"},
	"textures": {cmdTextures, "textures <file.mu> [outdir]"},
	"mbm":      {cmdMBM, "mbm <file.mbm> <out.png|out.webp>"},
	"gltf":     {cmdGLTF, "gltf <file.mu> <out.gltf|out.glb>"},
	"config":   {cmdConfig, "config [path]"},
}

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		printUsage()
		return
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", name)
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = cmd.run(cfg, args[1:])
	logger.Sync()
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "Usage: mutool %s\n", cmd.usage)
		os.Exit(2)
	case errors.Is(err, formats.ErrUnrecognizedFormat),
		errors.Is(err, formats.ErrUnexpectedEndOfData),
		errors.Is(err, formats.ErrMalformedBlock):
		fmt.Fprintf(os.Stderr, "Unrecognized format: %v\n", err)
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`mutool - Mu model utility

Usage:
  mutool [flags] <command> [arguments]

Commands:
  info <file.mu>                     Show model summary
  tree <file.mu>                     Print the node hierarchy with components
  paths <file.mu>                    List node paths in pre-order
  anim <file.mu>                     List animation clips and bound actions
  textures <file.mu> [outdir]        Resolve textures, optionally export them
  mbm <file.mbm> <out.png|out.webp>  Convert an MBM texture
  gltf <file.mu> <out.gltf|out.glb>  Export the import plan as glTF
  config [path]                      Write the effective config as YAML

Flags:
  -config <path>     Config file (default: ./mutool.yaml, then user config dir)
  -debug             Debug logging
  -charset <name>    Legacy name charset (utf-8, windows-1252, euc-kr)
  -no-colliders      Skip collider objects
  -snap <mode>       Root placement: origin, cursor or x,y,z
  -workers <n>       Parallel texture decoders
  -format <fmt>      Texture export format (png, webp)
  -fps <n>           Keyframe frames per second

Examples:
  mutool info model.mu
  mutool -charset windows-1252 tree model.mu
  mutool -format webp textures model.mu ./out
  mutool -snap 0,0,1 gltf model.mu model.glb`)
}

func loadModel(cfg *config.Config, path string) (*formats.Mu, error) {
	charset, err := encoding.Lookup(cfg.Decode.Charset)
	if err != nil {
		return nil, err
	}
	dec := formats.MuDecoder{Logger: logger.Named("mu"), Charset: charset}
	return dec.DecodeFile(path)
}

func newLoader(cfg *config.Config, dir string) *textures.Loader {
	return textures.NewLoader(dir, textures.Options{
		Extensions: cfg.Textures.Extensions,
		BumpSuffix: cfg.Textures.BumpSuffix,
		Workers:    cfg.Textures.Workers,
		Logger:     logger.Named("textures"),
	})
}

// loadTextures resolves the texture table next to the model. Failures are
// logged per texture and returned combined; the images slice is always
// table-aligned.
func loadTextures(cfg *config.Config, modelPath string, mu *formats.Mu) ([]*textures.Image, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newLoader(cfg, filepath.Dir(modelPath)).LoadAll(ctx, mu.Textures)
}

func plan(cfg *config.Config, mu *formats.Mu, images []*textures.Image) (*importer.Scene, error) {
	return importer.Build(mu, importer.Options{
		CreateColliders: cfg.Import.CreateColliders,
		Location:        cfg.Import.SnapLocation(),
		FPS:             cfg.Import.FPS,
		FrameStart:      cfg.Import.FrameStart,
		Images:          images,
		Logger:          logger.Named("import"),
	})
}

func cmdInfo(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	mu, err := loadModel(cfg, args[0])
	if err != nil {
		return err
	}
	scene, err := plan(cfg, mu, nil)
	if err != nil {
		return err
	}
	st := scene.Stats

	fmt.Printf("Model:      %s\n", args[0])
	fmt.Printf("Version:    %s\n", mu.Version)
	fmt.Printf("Textures:   %d\n", len(mu.Textures))
	fmt.Printf("Materials:  %d\n", len(mu.Materials))
	fmt.Printf("Nodes:      %d\n", mu.NodeCount())
	fmt.Printf("Vertices:   %d\n", st.Vertices)
	fmt.Printf("Triangles:  %d\n", st.Triangles)
	fmt.Printf("Animated:   %v\n", st.HasAnimation)
	fmt.Println()
	fmt.Println("Import plan:")
	fmt.Printf("  Objects:   %d\n", st.Objects)
	fmt.Printf("  Meshes:    %d\n", st.Meshes)
	fmt.Printf("  Lights:    %d\n", st.Lights)
	fmt.Printf("  Cameras:   %d\n", st.Cameras)
	fmt.Printf("  Colliders: %d\n", st.Colliders)
	fmt.Printf("  Actions:   %d\n", len(scene.Actions))
	if !st.Bounds.Empty() {
		size, center := st.Bounds.Size(), st.Bounds.Center()
		fmt.Printf("  Size:      %.3f x %.3f x %.3f\n", size.X, size.Y, size.Z)
		fmt.Printf("  Center:    %.3f, %.3f, %.3f\n", center.X, center.Y, center.Z)
	}

	if n := len(mu.Warnings) + len(scene.Warnings); n > 0 {
		fmt.Printf("\nWarnings (%d):\n", n)
		for _, w := range mu.Warnings {
			fmt.Printf("  %v\n", w)
		}
		for _, w := range scene.Warnings {
			fmt.Printf("  %v\n", w)
		}
	}
	return nil
}

func cmdTree(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	mu, err := loadModel(cfg, args[0])
	if err != nil {
		return err
	}

	var visit func(n *formats.MuNode, depth int)
	visit = func(n *formats.MuNode, depth int) {
		line := strings.Repeat("  ", depth) + n.Name
		if parts := describeComponents(n); len(parts) > 0 {
			line += " [" + strings.Join(parts, ", ") + "]"
		}
		fmt.Println(line)
		for _, child := range n.Children {
			visit(child, depth+1)
		}
	}
	visit(mu.Root, 0)
	return nil
}

func describeComponents(n *formats.MuNode) []string {
	var parts []string
	if n.Mesh != nil {
		parts = append(parts, fmt.Sprintf("mesh %dv/%dt", len(n.Mesh.Vertices), n.Mesh.TriangleCount()))
	}
	if n.SkinnedMeshRenderer != nil {
		parts = append(parts, fmt.Sprintf("skinned %d bones", len(n.SkinnedMeshRenderer.Bones)))
	}
	if n.Renderer != nil {
		parts = append(parts, fmt.Sprintf("renderer %v", n.Renderer.MaterialIndices))
	}
	if n.Light != nil {
		parts = append(parts, "light "+n.Light.Type.String())
	}
	if n.Camera != nil {
		parts = append(parts, "camera")
	}
	if n.Collider != nil {
		parts = append(parts, "collider "+colliderName(n.Collider))
	}
	if n.TagLayer != nil {
		parts = append(parts, fmt.Sprintf("tag %q layer %d", n.TagLayer.Tag, n.TagLayer.Layer))
	}
	if n.Animation != nil {
		parts = append(parts, fmt.Sprintf("animation %d clips", len(n.Animation.Clips)))
	}
	return parts
}

func colliderName(c formats.MuCollider) string {
	switch c.(type) {
	case *formats.MuColliderMesh:
		return "mesh"
	case *formats.MuColliderSphere:
		return "sphere"
	case *formats.MuColliderCapsule:
		return "capsule"
	case *formats.MuColliderBox:
		return "box"
	case *formats.MuColliderWheel:
		return "wheel"
	}
	return "unknown"
}

func cmdPaths(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	mu, err := loadModel(cfg, args[0])
	if err != nil {
		return err
	}
	mu.Walk(func(n *formats.MuNode) bool {
		fmt.Println(n.Path)
		return true
	})
	return nil
}

func cmdAnim(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	mu, err := loadModel(cfg, args[0])
	if err != nil {
		return err
	}
	mu.Walk(func(n *formats.MuNode) bool {
		if n.Animation == nil {
			return true
		}
		fmt.Printf("%s (default %q, autoplay %v)\n", n.Path, n.Animation.DefaultClip, n.Animation.AutoPlay)
		for _, clip := range n.Animation.Clips {
			fmt.Printf("  %s: %d curves, %.2fs\n", clip.Name, len(clip.Curves), clip.Duration())
		}
		return true
	})

	scene, err := plan(cfg, mu, nil)
	if err != nil {
		return err
	}
	if len(scene.Actions) > 0 {
		fmt.Println("\nActions:")
	}
	for _, act := range scene.Actions {
		first, last := actionRange(act)
		fmt.Printf("  %-40s %-5s %d curves, frames %.0f-%.0f\n",
			act.Name, act.Subject, len(act.FCurves), first, last)
	}
	for _, w := range scene.Warnings {
		fmt.Printf("  skipped: %v\n", w)
	}
	return nil
}

func actionRange(act *importer.Action) (first, last float32) {
	seen := false
	for _, fc := range act.FCurves {
		for _, kf := range fc.Keyframes {
			x := kf.Co[0]
			if !seen || x < first {
				first = x
			}
			if !seen || x > last {
				last = x
			}
			seen = true
		}
	}
	return first, last
}

func cmdTextures(cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	mu, err := loadModel(cfg, args[0])
	if err != nil {
		return err
	}

	images, loadErr := loadTextures(cfg, args[0], mu)
	for i, tex := range mu.Textures {
		img := images[i]
		if img == nil {
			fmt.Printf("  %-32s %-9s missing\n", tex.Name, tex.Type)
			continue
		}
		fmt.Printf("  %-32s %-9s %dx%d %s\n", tex.Name, tex.Type, img.Width, img.Height, filepath.Base(img.Path))
	}

	var exportErr error
	if len(args) == 2 {
		outDir := args[1]
		for _, img := range images {
			if img == nil {
				continue
			}
			out := filepath.Join(outDir, textures.ExportName(img.Name, cfg.Textures.ExportFormat))
			if err := textures.WriteFile(out, img, cfg.Textures.ExportFormat); err != nil {
				exportErr = multierr.Append(exportErr, err)
				continue
			}
			logger.Info("exported texture", zap.String("path", out))
		}
	}

	if errs := multierr.Errors(loadErr); len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "\n%d of %d textures not loaded\n", len(errs), len(mu.Textures))
	}
	return exportErr
}

func cmdMBM(cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	in, out := args[0], args[1]
	format, err := textures.FormatFromPath(out)
	if err != nil {
		return err
	}

	mbm, err := formats.ParseMBMFile(in)
	if err != nil {
		return err
	}
	img := &textures.Image{
		Name:   filepath.Base(in),
		Path:   in,
		Width:  mbm.Width,
		Height: mbm.Height,
		Pixels: mbm.Pixels,
		Bump:   mbm.Bump,
	}
	if err := textures.WriteFile(out, img, format); err != nil {
		return err
	}
	fmt.Printf("%s: %dx%d bump=%v -> %s\n", in, img.Width, img.Height, img.Bump, out)
	return nil
}

func cmdGLTF(cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	mu, err := loadModel(cfg, args[0])
	if err != nil {
		return err
	}
	images, loadErr := loadTextures(cfg, args[0], mu)
	if loadErr != nil {
		logger.Warn("some textures are missing from the export", zap.Error(loadErr))
	}

	scene, err := plan(cfg, mu, images)
	if err != nil {
		return err
	}
	doc, err := gltfexport.Export(scene, gltfexport.Options{
		EmbedTextures: true,
		Logger:        logger.Named("gltf"),
	})
	if err != nil {
		return err
	}
	if err := gltfexport.Save(doc, args[1]); err != nil {
		return err
	}
	fmt.Printf("%s: %d objects, %d meshes, %d materials -> %s\n",
		args[0], scene.Stats.Objects, len(doc.Meshes), len(doc.Materials), args[1])
	return nil
}

func cmdConfig(cfg *config.Config, args []string) error {
	switch len(args) {
	case 0:
		path, err := cfg.Save()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case 1:
		if err := cfg.SaveTo(args[0]); err != nil {
			return err
		}
		fmt.Println(args[0])
		return nil
	default:
		return errUsage
	}
}
