package jsonstream_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcvoid/jsonstream"
)

func TestBytesInputPeekDoesNotConsume(t *testing.T) {
	in := jsonstream.NewStringInput("ab")
	r, err := in.Peek()
	require.NoError(t, err)
	require.Equal(t, 'a', r)

	r, err = in.Peek()
	require.NoError(t, err)
	require.Equal(t, 'a', r)

	r, err = in.ReadCodepoint()
	require.NoError(t, err)
	require.Equal(t, 'a', r)

	r, err = in.ReadCodepoint()
	require.NoError(t, err)
	require.Equal(t, 'b', r)
}

func TestBytesInputReportsEOF(t *testing.T) {
	in := jsonstream.NewStringInput("")
	r, err := in.Peek()
	require.NoError(t, err)
	require.Equal(t, jsonstream.EOF, r)

	r, err = in.ReadCodepoint()
	require.NoError(t, err)
	require.Equal(t, jsonstream.EOF, r)
}

func TestReadASCIIRejectsNonASCII(t *testing.T) {
	in := jsonstream.NewStringInput("é")
	_, err := in.ReadASCII()
	require.Error(t, err)
	require.True(t, errors.Is(err, jsonstream.ErrFormat))
}

func TestReaderInputMatchesBytesInput(t *testing.T) {
	in := jsonstream.NewReaderInput(strings.NewReader("xyz"))
	var got []rune
	for {
		r, err := in.ReadCodepoint()
		require.NoError(t, err)
		if r == jsonstream.EOF {
			break
		}
		got = append(got, r)
	}
	require.Equal(t, []rune{'x', 'y', 'z'}, got)
}

func TestCodepointInputDrainsSupplier(t *testing.T) {
	runes := []rune("hi")
	i := 0
	supplier := func() (rune, error) {
		if i >= len(runes) {
			return jsonstream.EOF, nil
		}
		r := runes[i]
		i++
		return r, nil
	}
	in := jsonstream.NewCodepointInput(supplier)
	r, err := in.ReadCodepoint()
	require.NoError(t, err)
	require.Equal(t, 'h', r)
	r, err = in.Peek()
	require.NoError(t, err)
	require.Equal(t, 'i', r)
}
