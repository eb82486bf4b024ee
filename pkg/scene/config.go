package scene

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/geometry"
	"github.com/df07/go-sphere-pathtracer/pkg/material"
	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/colornames"
	yamlv3 "gopkg.in/yaml.v3"
	"sigs.k8s.io/yaml"
)

// Format identifies a scene file encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the encoding from a file extension
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported scene file extension %q", filepath.Ext(path))
	}
}

// fileConfig mirrors the on-disk layout:
//
//	{"camera": {...}, "object_list": {"objects": [{"Sphere": {...}}]}}
type fileConfig struct {
	Metadata   *Metadata             `json:"metadata,omitempty"`
	Camera     renderer.CameraConfig `json:"camera"`
	ObjectList fileObjectList        `json:"object_list"`
}

type fileObjectList struct {
	Objects []fileObject `json:"objects"`
}

// fileObject is a tagged union keyed by object type. Sphere is the only type.
type fileObject struct {
	Sphere *fileSphere `json:"Sphere,omitempty"`
}

type fileSphere struct {
	Center   core.Point3D `json:"center"`
	Radius   float64      `json:"radius"`
	Material fileMaterial `json:"material"`
}

// fileMaterial is a tagged union keyed by material kind; exactly one field is set
type fileMaterial struct {
	Lambertian *lambertianConfig `json:"Lambertian,omitempty"`
	Metal      *metalConfig      `json:"Metal,omitempty"`
	Glass      *glassConfig      `json:"Glass,omitempty"`
}

type lambertianConfig struct {
	Albedo albedo `json:"albedo"`
}

type metalConfig struct {
	Albedo albedo  `json:"albedo"`
	Fuzz   float64 `json:"fuzz"`
}

type glassConfig struct {
	RefractionIndex float64 `json:"refraction_index"`
}

// albedo is written as [r, g, b]. A color name such as "gold" is also accepted on input.
type albedo core.Color

func (a albedo) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{a.X, a.Y, a.Z})
}

func (a *albedo) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		c, ok := colornames.Map[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("unknown color name %q", name)
		}
		*a = albedo(core.NewColor(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255))
		return nil
	}

	var rgb []float64
	if err := json.Unmarshal(data, &rgb); err != nil {
		return fmt.Errorf("albedo must be [r, g, b] or a color name: %w", err)
	}
	if len(rgb) != 3 {
		return fmt.Errorf("albedo must have 3 components, got %d", len(rgb))
	}
	*a = albedo(core.NewColor(rgb[0], rgb[1], rgb[2]))
	return nil
}

func (m fileMaterial) toMaterial() (material.Material, error) {
	set := 0
	var mat material.Material
	if m.Lambertian != nil {
		set++
		mat = material.NewLambertian(core.Color(m.Lambertian.Albedo))
	}
	if m.Metal != nil {
		set++
		mat = material.NewMetal(core.Color(m.Metal.Albedo), m.Metal.Fuzz)
	}
	if m.Glass != nil {
		set++
		mat = material.NewGlass(m.Glass.RefractionIndex)
	}

	switch set {
	case 0:
		return nil, fmt.Errorf("missing material (want one of %s, %s, %s)",
			material.KindLambertian, material.KindMetal, material.KindGlass)
	case 1:
		return mat, nil
	default:
		return nil, fmt.Errorf("material sets %d kinds, want exactly one", set)
	}
}

func fromMaterial(mat material.Material) (fileMaterial, error) {
	switch m := mat.(type) {
	case material.Lambertian:
		return fileMaterial{Lambertian: &lambertianConfig{Albedo: albedo(m.Albedo)}}, nil
	case material.Metal:
		return fileMaterial{Metal: &metalConfig{Albedo: albedo(m.Albedo), Fuzz: m.Fuzz}}, nil
	case material.Glass:
		return fileMaterial{Glass: &glassConfig{RefractionIndex: m.RefractionIndex}}, nil
	default:
		return fileMaterial{}, fmt.Errorf("unsupported material %T", mat)
	}
}

// Load reads a scene file, choosing JSON or YAML by extension
func Load(ctx context.Context, path string) (*Scene, error) {
	tracer := otel.Tracer("github.com/df07/go-sphere-pathtracer/pkg/scene")
	var span trace.Span
	_, span = tracer.Start(ctx, "scene.Load")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("while reading scene file %s: %w", path, err)
	}

	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("while parsing scene file %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Parse decodes and validates a scene. Unknown fields and tags are rejected.
func Parse(data []byte, format Format) (*Scene, error) {
	switch format {
	case FormatJSON:
	case FormatYAML:
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, err
		}
		data = converted
	default:
		return nil, fmt.Errorf("unsupported scene format %q", format)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var cfg fileConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("while decoding scene: %w", err)
	}

	s := New(cfg.Camera)
	if cfg.Metadata != nil {
		s.Metadata = *cfg.Metadata
		s.Name = cfg.Metadata.Name
	}

	for i, obj := range cfg.ObjectList.Objects {
		if obj.Sphere == nil {
			return nil, fmt.Errorf("object %d: missing object type (want Sphere)", i)
		}
		mat, err := obj.Sphere.Material.toMaterial()
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		s.Objects.Add(geometry.NewSphere(obj.Sphere.Center, obj.Sphere.Radius, mat))
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// yamlToJSON converts YAML to JSON with YAML 1.2 scalar rules, so vector keys
// like y stay strings instead of becoming booleans
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yamlv3.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("while converting YAML: %w", err)
	}
	converted, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("while converting YAML: %w", err)
	}
	return converted, nil
}

// MarshalJSON writes the scene in the same layout Parse reads
func (s *Scene) MarshalJSON() ([]byte, error) {
	cfg := fileConfig{
		Camera:     s.CameraConfig,
		ObjectList: fileObjectList{Objects: []fileObject{}},
	}
	if s.Metadata != (Metadata{}) {
		md := s.Metadata
		cfg.Metadata = &md
	}

	for i, obj := range s.Objects.Objects {
		sphere, ok := obj.(*geometry.Sphere)
		if !ok {
			return nil, fmt.Errorf("object %d: unsupported object %T", i, obj)
		}
		mat, err := fromMaterial(sphere.Material)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		cfg.ObjectList.Objects = append(cfg.ObjectList.Objects, fileObject{Sphere: &fileSphere{
			Center:   sphere.Center,
			Radius:   sphere.Radius,
			Material: mat,
		}})
	}

	return json.Marshal(cfg)
}

// EncodeYAML returns the scene as YAML in the same layout as MarshalJSON
func (s *Scene) EncodeYAML() ([]byte, error) {
	data, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return yaml.JSONToYAML(data)
}
