package catalog

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// GeometryExtensionType implements Arrow extension type for geospatial data.
// Geometries are stored as WKB (Well-Known Binary) in Binary columns.
// Compatible with DuckDB spatial extension and GeoParquet format.
type GeometryExtensionType struct {
	arrow.ExtensionBase
}

// NewGeometryExtensionType creates a new geometry extension type.
func NewGeometryExtensionType() *GeometryExtensionType {
	return &GeometryExtensionType{
		ExtensionBase: arrow.ExtensionBase{
			Storage: arrow.BinaryTypes.Binary,
		},
	}
}

// ArrayType returns the Go type for geometry arrays.
func (g *GeometryExtensionType) ArrayType() reflect.Type {
	return reflect.TypeOf(GeometryArray{})
}

// ExtensionName returns the extension type identifier.
// Uses "geoarrow.wkb" for maximum compatibility with GeoArrow and DuckDB.
func (g *GeometryExtensionType) ExtensionName() string {
	return "geoarrow.wkb"
}

// String returns a string representation of the type.
func (g *GeometryExtensionType) String() string {
	return "extension<geoarrow.wkb>"
}

// Serialize returns the extension metadata (empty for basic WKB).
func (g *GeometryExtensionType) Serialize() string {
	return ""
}

// Deserialize creates a geometry extension type from metadata.
func (g *GeometryExtensionType) Deserialize(storageType arrow.DataType, data string) (arrow.ExtensionType, error) {
	if !arrow.TypeEqual(storageType, arrow.BinaryTypes.Binary) &&
		!arrow.TypeEqual(storageType, arrow.BinaryTypes.LargeBinary) {
		return nil, fmt.Errorf("invalid storage type for geometry: %s (expected Binary or LargeBinary)", storageType)
	}
	return &GeometryExtensionType{
		ExtensionBase: arrow.ExtensionBase{Storage: storageType},
	}, nil
}

// ExtensionEquals checks equality with another extension type.
func (g *GeometryExtensionType) ExtensionEquals(other arrow.ExtensionType) bool {
	otherGeom, ok := other.(*GeometryExtensionType)
	if !ok {
		return false
	}
	return arrow.TypeEqual(g.StorageType(), otherGeom.StorageType())
}

// GeometryArray is the array type of geometry columns.
type GeometryArray struct {
	array.ExtensionArrayBase
}

// WKB returns the raw WKB value at i, or nil when the slot is null.
func (a *GeometryArray) WKB(i int) []byte {
	if a.IsNull(i) {
		return nil
	}
	return geometryStorage(a).Value(i)
}

// Point decodes the value at i as a point.
func (a *GeometryArray) Point(i int) (orb.Point, bool) {
	return decodePoint(a.WKB(i))
}

// GeometryMetadata represents CRS and encoding information for geometry columns.
// Stored in Arrow field metadata as JSON.
type GeometryMetadata struct {
	// CRS is the coordinate reference system (PROJJSON format).
	CRS *CRS `json:"crs,omitempty"`

	// Encoding is the geometry encoding format (default: "WKB").
	Encoding string `json:"encoding,omitempty"`

	// GeometryTypes lists allowed geometry types (e.g., ["Point", "Polygon"]).
	// If nil/empty, any geometry type is allowed.
	GeometryTypes []string `json:"geometry_types,omitempty"`

	// Edges indicates edge interpretation ("planar" or "spherical").
	Edges string `json:"edges,omitempty"`

	// BBox is the bounding box [minx, miny, maxx, maxy].
	BBox []float64 `json:"bbox,omitempty"`
}

// CRS represents a coordinate reference system in PROJJSON format.
// Simplified structure for common use cases.
type CRS struct {
	// ID identifies the CRS (e.g., EPSG code).
	ID *CRSID `json:"id,omitempty"`

	// Name is human-readable CRS name.
	Name string `json:"name,omitempty"`

	// Type is the CRS type (e.g., "GeographicCRS", "ProjectedCRS").
	Type string `json:"type,omitempty"`
}

// CRSID represents a CRS identifier (typically EPSG code).
type CRSID struct {
	Authority string `json:"authority"` // e.g., "EPSG"
	Code      int    `json:"code"`      // e.g., 4326
}

// NewGeometryField creates an Arrow field with geometry extension type and metadata.
func NewGeometryField(name string, nullable bool, srid int, geomType string) arrow.Field {
	extType := NewGeometryExtensionType()

	// Create CRS metadata
	metadata := &GeometryMetadata{
		CRS: &CRS{
			ID: &CRSID{
				Authority: "EPSG",
				Code:      srid,
			},
		},
		Encoding: "WKB",
	}

	if geomType != "" && geomType != "GEOMETRY" {
		metadata.GeometryTypes = []string{geomType}
	}

	// Serialize metadata as JSON
	metadataJSON, _ := json.Marshal(metadata)

	// Build field metadata
	fieldMetadata := arrow.MetadataFrom(map[string]string{
		"ARROW:extension:name":     extType.ExtensionName(),
		"ARROW:extension:metadata": string(metadataJSON),
		"srid":                     fmt.Sprintf("%d", srid),
		"geometry_type":            geomType,
		"dimension":                "XY",
	})

	return arrow.Field{
		Name:     name,
		Type:     extType,
		Nullable: nullable,
		Metadata: fieldMetadata,
	}
}

// EncodeGeometry converts an orb.Geometry to WKB bytes for Arrow storage.
func EncodeGeometry(geom orb.Geometry) ([]byte, error) {
	if geom == nil {
		return nil, fmt.Errorf("cannot encode nil geometry")
	}
	return wkb.Marshal(geom)
}

// DecodeGeometry converts WKB bytes from Arrow storage to orb.Geometry.
func DecodeGeometry(wkbBytes []byte) (orb.Geometry, error) {
	if len(wkbBytes) == 0 {
		return nil, fmt.Errorf("cannot decode empty WKB data")
	}
	return wkb.Unmarshal(wkbBytes)
}

// PointField is the WGS84 point column used by the airport tables.
func PointField(name string) arrow.Field {
	return NewGeometryField(name, true, 4326, "Point")
}

// appendPoint appends p as WKB, or a null when p has no finite position.
// b is either the extension builder of a geometry field or a plain binary
// builder.
func appendPoint(b array.Builder, p orb.Point, ok bool) error {
	if eb, isExt := b.(*array.ExtensionBuilder); isExt {
		b = eb.Builder
	}
	bb := b.(*array.BinaryBuilder)
	if !ok {
		bb.AppendNull()
		return nil
	}
	data, err := EncodeGeometry(p)
	if err != nil {
		return err
	}
	bb.Append(data)
	return nil
}

// PointValue reads the point at i from a geometry or binary column.
func PointValue(arr arrow.Array, i int) (orb.Point, bool) {
	if arr.IsNull(i) {
		return orb.Point{}, false
	}
	return decodePoint(geometryStorage(arr).Value(i))
}

func geometryStorage(arr arrow.Array) *array.Binary {
	if ext, ok := arr.(array.ExtensionArray); ok {
		arr = ext.Storage()
	}
	return arr.(*array.Binary)
}

func decodePoint(data []byte) (orb.Point, bool) {
	if len(data) == 0 {
		return orb.Point{}, false
	}
	g, err := DecodeGeometry(data)
	if err != nil {
		return orb.Point{}, false
	}
	p, ok := g.(orb.Point)
	return p, ok
}

// RegisterGeometryExtension registers the geometry extension type with Arrow.
// Should be called once during package initialization.
func RegisterGeometryExtension() {
	_ = arrow.RegisterExtensionType(&GeometryExtensionType{
		ExtensionBase: arrow.ExtensionBase{
			Storage: arrow.BinaryTypes.Binary,
		},
	})
}

func init() {
	RegisterGeometryExtension()
}
