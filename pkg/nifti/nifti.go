// Package nifti reads and writes single-file NIfTI-1 volumes (.nii and
// .nii.gz), mapping them to and from the volume.Volume model.
//
// Header layout follows the official nifti1.h definition:
// https://nifti.nimh.nih.gov/pub/dist/src/niftilib/nifti1.h
package nifti

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"mriresample/pkg/volume"
)

const (
	headerSize    = 348
	dataOffset    = 352 // header + 4 extension bytes
	spatialUnitMM = 2   // NIFTI_UNITS_MM
	xformScanner  = 1   // NIFTI_XFORM_SCANNER_ANAT
)

// LoadError indicates that an input volume could not be read or carries
// inconsistent geometry metadata.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// header is the fixed 348-byte NIfTI-1 header.
type header struct {
	SizeOfHdr      int32
	DataTypeUnused [10]byte
	DBNameUnused   [18]byte
	ExtentsUnused  int32
	SessionUnused  int16
	RegularUnused  byte
	DimInfo        byte

	Dim         [8]int16
	IntentP1    float32
	IntentP2    float32
	IntentP3    float32
	IntentCode  int16
	DataType    int16
	BitPix      int16
	SliceStart  int16
	PixDim      [8]float32
	VoxOffset   float32
	SclSlope    float32
	SclInter    float32
	SliceEnd    int16
	SliceCode   byte
	XYZTUnits   byte
	CalMax      float32
	CalMin      float32
	SliceDur    float32
	TOffset     float32
	GlMaxUnused int32
	GlMinUnused int32

	Descrip [80]byte
	AuxFile [24]byte

	QFormCode int16
	SFormCode int16

	QuaternB float32
	QuaternC float32
	QuaternD float32
	QOffsetX float32
	QOffsetY float32
	QOffsetZ float32

	SRowX [4]float32
	SRowY [4]float32
	SRowZ [4]float32

	IntentName [16]byte

	Magic [4]byte
}

// Load reads a NIfTI-1 volume from path. Gzip compression is detected
// from the file content. Only 3D volumes are supported; trailing
// singleton dimensions are accepted.
func Load(path string) (*volume.Volume, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
	}
	if len(raw) < headerSize {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("file shorter than NIfTI-1 header (%d bytes)", len(raw))}
	}

	hdr, order, err := readHeader(raw)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	log.WithFields(log.Fields{
		"path":      path,
		"byteOrder": fmt.Sprintf("%v", order),
		"datatype":  hdr.DataType,
		"dim":       hdr.Dim,
	}).Debug("read NIfTI header")

	v, err := imageFromHeader(hdr, order, raw)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return v, nil
}

// readHeader decodes the fixed header, inferring byte order from the
// dim[0] field as nifti1_io does.
func readHeader(raw []byte) (header, binary.ByteOrder, error) {
	var hdr header
	var order binary.ByteOrder = binary.LittleEndian

	if err := binary.Read(bytes.NewReader(raw), order, &hdr); err != nil {
		return hdr, order, err
	}
	if hdr.Dim[0] <= 0 || hdr.Dim[0] > 7 {
		order = binary.BigEndian
		if err := binary.Read(bytes.NewReader(raw), order, &hdr); err != nil {
			return hdr, order, err
		}
	}
	if hdr.Dim[0] <= 0 || hdr.Dim[0] > 7 {
		return hdr, order, fmt.Errorf("cannot infer byte order: dim[0] not in [1, 7]")
	}
	if hdr.SizeOfHdr != headerSize {
		return hdr, order, fmt.Errorf("invalid header size %d, want %d", hdr.SizeOfHdr, headerSize)
	}
	magic := string(hdr.Magic[:3])
	if magic != "n+1" && magic != "ni1" {
		return hdr, order, fmt.Errorf("invalid magic %q", magic)
	}
	if magic == "ni1" {
		return hdr, order, fmt.Errorf("two-file NIfTI (.hdr/.img) is not supported")
	}
	return hdr, order, nil
}

// imageFromHeader decodes voxel data and geometry into a Volume.
func imageFromHeader(hdr header, order binary.ByteOrder, raw []byte) (*volume.Volume, error) {
	var dim [3]int
	for i := 0; i < 3; i++ {
		dim[i] = 1
		if int(hdr.Dim[0]) > i {
			dim[i] = int(hdr.Dim[i+1])
		}
	}
	for i := int16(4); i <= hdr.Dim[0] && i < 8; i++ {
		if hdr.Dim[i] > 1 {
			return nil, fmt.Errorf("volume has %d points along dimension %d; only 3D volumes are supported", hdr.Dim[i], i)
		}
	}
	nvox := dim[0] * dim[1] * dim[2]
	if nvox <= 0 {
		return nil, fmt.Errorf("non-positive voxel count for dim %v", dim)
	}

	dtype, err := dtypeFromCode(hdr.DataType)
	if err != nil {
		return nil, err
	}
	_, bitpix, err := codeFromDType(dtype)
	if err != nil {
		return nil, err
	}
	bytesPer := int(bitpix) / 8

	offset := int(hdr.VoxOffset)
	if offset < dataOffset {
		offset = dataOffset
	}
	need := offset + nvox*bytesPer
	if len(raw) < need {
		return nil, fmt.Errorf("truncated data: have %d bytes, need %d", len(raw), need)
	}

	data := make([]float64, nvox)
	buf := raw[offset:]
	for i := 0; i < nvox; i++ {
		data[i] = readVoxel(buf, i, dtype, order)
	}

	// Apply the header's intensity scaling the way get_fdata does.
	slope := float64(hdr.SclSlope)
	inter := float64(hdr.SclInter)
	if slope != 0 && !(slope == 1 && inter == 0) {
		for i := range data {
			data[i] = data[i]*slope + inter
		}
	}

	aff, err := affineFromHeader(hdr)
	if err != nil {
		return nil, err
	}
	return volume.New(data, dim, aff, dtype)
}

func readVoxel(buf []byte, i int, dtype volume.DType, order binary.ByteOrder) float64 {
	switch dtype {
	case volume.Uint8:
		return float64(buf[i])
	case volume.Int16:
		return float64(int16(order.Uint16(buf[i*2:])))
	case volume.Uint16:
		return float64(order.Uint16(buf[i*2:]))
	case volume.Int32:
		return float64(int32(order.Uint32(buf[i*4:])))
	case volume.Float32:
		return float64(math.Float32frombits(order.Uint32(buf[i*4:])))
	case volume.Float64:
		return math.Float64frombits(order.Uint64(buf[i*8:]))
	}
	return 0
}

// affineFromHeader derives the voxel-to-world transform, preferring the
// sform when present, then the qform, then a plain pixdim diagonal.
func affineFromHeader(hdr header) (volume.Affine, error) {
	if hdr.SFormCode > 0 {
		a := volume.Identity()
		for j := 0; j < 4; j++ {
			a[0][j] = float64(hdr.SRowX[j])
			a[1][j] = float64(hdr.SRowY[j])
			a[2][j] = float64(hdr.SRowZ[j])
		}
		return a, nil
	}
	if hdr.QFormCode > 0 {
		return qformToAffine(hdr), nil
	}
	a := volume.Diagonal(float64(hdr.PixDim[1]), float64(hdr.PixDim[2]), float64(hdr.PixDim[3]))
	return a, nil
}

// qformToAffine converts the quaternion representation to a matrix, per
// the "METHOD 2" description in nifti1.h.
func qformToAffine(hdr header) volume.Affine {
	b := float64(hdr.QuaternB)
	c := float64(hdr.QuaternC)
	d := float64(hdr.QuaternD)
	a := 1 - b*b - c*c - d*d
	if a < 0 {
		a = 0
	}
	a = math.Sqrt(a)

	qfac := float64(hdr.PixDim[0])
	if qfac == 0 {
		qfac = 1
	}
	sx := float64(hdr.PixDim[1])
	sy := float64(hdr.PixDim[2])
	sz := float64(hdr.PixDim[3]) * qfac

	m := volume.Identity()
	m[0][0] = (a*a + b*b - c*c - d*d) * sx
	m[0][1] = (2*b*c - 2*a*d) * sy
	m[0][2] = (2*b*d + 2*a*c) * sz
	m[1][0] = (2*b*c + 2*a*d) * sx
	m[1][1] = (a*a + c*c - b*b - d*d) * sy
	m[1][2] = (2*c*d - 2*a*b) * sz
	m[2][0] = (2*b*d - 2*a*c) * sx
	m[2][1] = (2*c*d + 2*a*b) * sy
	m[2][2] = (a*a + d*d - c*c - b*b) * sz
	m[0][3] = float64(hdr.QOffsetX)
	m[1][3] = float64(hdr.QOffsetY)
	m[2][3] = float64(hdr.QOffsetZ)
	return m
}

// Save writes a volume to path as a single-file NIfTI-1 image, gzipped
// when the path ends in ".gz". The affine is stored in the sform and the
// voxel data is narrowed to the volume's storage type.
func Save(v *volume.Volume, path string) error {
	code, bitpix, err := codeFromDType(v.DType)
	if err != nil {
		return fmt.Errorf("cannot save %s: %w", path, err)
	}
	spacing := v.Spacing()

	hdr := header{
		SizeOfHdr: headerSize,
		DataType:  code,
		BitPix:    bitpix,
		VoxOffset: dataOffset,
		SclSlope:  1,
		XYZTUnits: spatialUnitMM,
		SFormCode: xformScanner,
		Magic:     [4]byte{'n', '+', '1', 0},
	}
	hdr.Dim[0] = 3
	hdr.Dim[1] = int16(v.Dim[0])
	hdr.Dim[2] = int16(v.Dim[1])
	hdr.Dim[3] = int16(v.Dim[2])
	for i := 4; i < 8; i++ {
		hdr.Dim[i] = 1
	}
	hdr.PixDim[0] = 1
	hdr.PixDim[1] = float32(spacing[0])
	hdr.PixDim[2] = float32(spacing[1])
	hdr.PixDim[3] = float32(spacing[2])
	for j := 0; j < 4; j++ {
		hdr.SRowX[j] = float32(v.Affine[0][j])
		hdr.SRowY[j] = float32(v.Affine[1][j])
		hdr.SRowZ[j] = float32(v.Affine[2][j])
	}
	copy(hdr.Descrip[:], "mriresample")

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("cannot save %s: %w", path, err)
	}
	buf.Write([]byte{0, 0, 0, 0}) // no header extensions

	if err := writeVoxels(&buf, v); err != nil {
		return fmt.Errorf("cannot save %s: %w", path, err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot save %s: %w", path, err)
	}
	defer out.Close()

	var w io.Writer = out
	var zw *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		zw = gzip.NewWriter(out)
		w = zw
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("cannot save %s: %w", path, err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("cannot save %s: %w", path, err)
		}
	}
	log.WithFields(log.Fields{
		"path":     path,
		"dim":      v.Dim,
		"datatype": v.DType.String(),
	}).Debug("wrote NIfTI volume")
	return nil
}

func writeVoxels(buf *bytes.Buffer, v *volume.Volume) error {
	order := binary.LittleEndian
	var scratch [8]byte
	for _, val := range v.Data {
		switch v.DType {
		case volume.Uint8:
			buf.WriteByte(uint8(val))
		case volume.Int16:
			order.PutUint16(scratch[:2], uint16(int16(val)))
			buf.Write(scratch[:2])
		case volume.Uint16:
			order.PutUint16(scratch[:2], uint16(val))
			buf.Write(scratch[:2])
		case volume.Int32:
			order.PutUint32(scratch[:4], uint32(int32(val)))
			buf.Write(scratch[:4])
		case volume.Float32:
			order.PutUint32(scratch[:4], math.Float32bits(float32(val)))
			buf.Write(scratch[:4])
		case volume.Float64:
			order.PutUint64(scratch[:8], math.Float64bits(val))
			buf.Write(scratch[:8])
		default:
			return fmt.Errorf("no NIfTI encoding for %v", v.DType)
		}
	}
	return nil
}
