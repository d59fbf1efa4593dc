package nifti

import (
	"fmt"

	"mriresample/pkg/volume"
)

// NIfTI-1 datatype codes, per the official nifti1.h definition.
const (
	dtUint8   int16 = 2
	dtInt16   int16 = 4
	dtInt32   int16 = 8
	dtFloat32 int16 = 16
	dtFloat64 int16 = 64
	dtUint16  int16 = 512
)

// dtypeFromCode maps a NIfTI datatype code to the volume storage type.
func dtypeFromCode(code int16) (volume.DType, error) {
	switch code {
	case dtUint8:
		return volume.Uint8, nil
	case dtInt16:
		return volume.Int16, nil
	case dtInt32:
		return volume.Int32, nil
	case dtFloat32:
		return volume.Float32, nil
	case dtFloat64:
		return volume.Float64, nil
	case dtUint16:
		return volume.Uint16, nil
	}
	return 0, fmt.Errorf("unsupported NIfTI datatype code %d", code)
}

// codeFromDType maps a volume storage type to its NIfTI datatype code
// and bits per voxel.
func codeFromDType(d volume.DType) (code int16, bitpix int16, err error) {
	switch d {
	case volume.Uint8:
		return dtUint8, 8, nil
	case volume.Int16:
		return dtInt16, 16, nil
	case volume.Int32:
		return dtInt32, 32, nil
	case volume.Float32:
		return dtFloat32, 32, nil
	case volume.Float64:
		return dtFloat64, 64, nil
	case volume.Uint16:
		return dtUint16, 16, nil
	}
	return 0, 0, fmt.Errorf("no NIfTI datatype code for %v", d)
}
