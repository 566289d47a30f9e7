package stratec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadIntegers(t *testing.T) {
	buf := []byte{0x07, 0x00, 0x87, 0xd6, 0x12, 0x00}

	v16, err := ReadUint16(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint16(7), v16)

	v32, err := ReadUint32(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(1234567), v32)

	_, err = ReadUint32(buf, 3)
	assert.True(t, errors.Is(err, ErrFormat))
	_, err = ReadUint16(buf, -1)
	assert.Error(t, err)
}

func TestReadDate(t *testing.T) {
	buf := []byte{0xff, 0x01, 0x7b, 0x2a, 0x01}
	d, err := ReadDate(buf, 1)
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 1956, Month: 12, Day: 17}, d)
}

func TestReadPascalString(t *testing.T) {
	t.Run("reads length prefixed bytes", func(t *testing.T) {
		buf := []byte{0x00, 0x03, 'a', 'b', 'c', 'd'}
		s, err := ReadPascalString(buf, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), s)

		// The result must not alias the buffer.
		s[0] = 'z'
		assert.Equal(t, byte('a'), buf[2])
	})

	t.Run("empty string", func(t *testing.T) {
		s, err := ReadPascalString([]byte{0x00}, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, s)
	})

	t.Run("length runs past the buffer", func(t *testing.T) {
		_, err := ReadPascalString([]byte{0x05, 'a', 'b'}, 0, 0)
		var fe *FormatError
		assert.ErrorAs(t, err, &fe)
	})

	t.Run("length exceeds reserved width", func(t *testing.T) {
		buf := make([]byte, 64)
		buf[0] = 41
		_, err := ReadPascalString(buf, 0, PatientNameWidth)
		assert.ErrorIs(t, err, ErrFormat)

		buf[0] = 40
		s, err := ReadPascalString(buf, 0, PatientNameWidth)
		require.NoError(t, err)
		assert.Len(t, s, 40)
	})

	t.Run("offset past the buffer", func(t *testing.T) {
		_, err := ReadPascalString([]byte{0x01}, 1, 0)
		assert.Error(t, err)
	})
}

func TestWriteUint32(t *testing.T) {
	buf := bytes.Repeat([]byte{0xaa}, 6)
	require.NoError(t, WriteUint32(buf, 1, 19570101))
	assert.Equal(t, []byte{0xaa, 0xb5, 0x9d, 0x2a, 0x01, 0xaa}, buf)

	assert.Error(t, WriteUint32(buf, 3, 1))
}

func TestWriteFixedString(t *testing.T) {
	t.Run("blanking zeroes the whole field", func(t *testing.T) {
		buf := bytes.Repeat([]byte{0xee}, 50)
		require.NoError(t, WriteFixedString(buf, 2, nil, PatientNameWidth))

		assert.Equal(t, make([]byte, PatientNameWidth), buf[2:2+PatientNameWidth])
		assert.Equal(t, []byte{0xee, 0xee}, buf[:2])
		assert.Equal(t, bytes.Repeat([]byte{0xee}, 7), buf[2+PatientNameWidth:])
	})

	t.Run("value is padded with zeros", func(t *testing.T) {
		buf := bytes.Repeat([]byte{0xee}, 8)
		require.NoError(t, WriteFixedString(buf, 0, []byte("ab"), 6))
		assert.Equal(t, []byte{0x02, 'a', 'b', 0, 0, 0, 0xee, 0xee}, buf)

		s, err := ReadPascalString(buf, 0, 6)
		require.NoError(t, err)
		assert.Equal(t, []byte("ab"), s)
	})

	t.Run("value too long for field", func(t *testing.T) {
		buf := make([]byte, 8)
		assert.Error(t, WriteFixedString(buf, 0, []byte("abcdef"), 6))
		assert.Equal(t, make([]byte, 8), buf)
	})

	t.Run("field past the buffer", func(t *testing.T) {
		buf := make([]byte, 8)
		assert.Error(t, WriteFixedString(buf, 4, nil, 6))
	})
}
