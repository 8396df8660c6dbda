package mesh

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/hschendel/stl"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

const (
	binaryHeaderSize   = 84
	binaryTriangleSize = 50
	maxLineSize        = 1024 * 1024
)

// Parse reads an ASCII STL stream and returns its first solid.
//
// The stream must contain a "solid" line; a solid without facets is valid.
func Parse(r io.Reader) (*Solid, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		solid  *Solid
		facet  *Facet
		lineNo int
	)

	for scanner.Scan() {
		lineNo++

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if solid == nil {
			if fields[0] == "solid" {
				solid = &Solid{Name: strings.Join(fields[1:], " ")}
			}

			continue
		}

		switch fields[0] {
		case "facet":
			if facet != nil {
				return nil, parseErrorf(lineNo, "facet started before previous endfacet")
			}

			if len(fields) < 2 || fields[1] != "normal" {
				return nil, parseErrorf(lineNo, "expected \"facet normal\"")
			}

			normal, err := parseVector(fields[2:])
			if err != nil {
				return nil, parseErrorf(lineNo, "facet normal: %v", err)
			}

			facet = &Facet{Normal: normal}
		case "vertex":
			if facet == nil {
				return nil, parseErrorf(lineNo, "vertex outside facet")
			}

			v, err := parseVector(fields[1:])
			if err != nil {
				return nil, parseErrorf(lineNo, "vertex: %v", err)
			}

			facet.AddVertex(v)
		case "endfacet":
			if facet == nil {
				return nil, parseErrorf(lineNo, "endfacet without facet")
			}

			solid.AddFacet(*facet)
			facet = nil
		case "endsolid":
			if facet != nil {
				return nil, parseErrorf(lineNo, "endsolid inside facet")
			}

			return solid, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read: %w", m.ErrParse, err)
	}

	if solid == nil {
		return nil, fmt.Errorf("%w: no solid found", m.ErrParse)
	}

	if facet != nil {
		return nil, parseErrorf(lineNo, "unterminated facet")
	}

	return solid, nil
}

// ParseFile reads an STL file. Binary STL files are recognised by their size
// and decoded as well; they yield a solid named after the binary header.
func ParseFile(path m.Path) (*Solid, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return nil, err
	}

	defer func() { _ = f.Close() }()

	binaryFile, err := isBinary(f)
	if err != nil {
		return nil, err
	}

	if binaryFile {
		slog.Debug("parsing binary stl", "path", path)
		return parseBinary(path)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	solid, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return solid, nil
}

func isBinary(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}

	if info.Size() < binaryHeaderSize {
		return false, nil
	}

	header := make([]byte, binaryHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return false, err
	}

	count := int64(binary.LittleEndian.Uint32(header[80:]))

	return binaryHeaderSize+count*binaryTriangleSize == info.Size(), nil
}

func parseBinary(path m.Path) (*Solid, error) {
	decoded, err := stl.ReadFile(string(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", m.ErrParse, path, err)
	}

	solid := &Solid{Name: decoded.Name}

	for _, t := range decoded.Triangles {
		facet := Facet{Normal: fromVec3(t.Normal)}
		for _, v := range t.Vertices {
			facet.AddVertex(fromVec3(v))
		}

		solid.AddFacet(facet)
	}

	return solid, nil
}

func fromVec3(v stl.Vec3) Vector {
	return Vector{float64(v[0]), float64(v[1]), float64(v[2])}
}

func parseVector(fields []string) (Vector, error) {
	numbers := make([]float64, 0, len(fields))

	for _, field := range fields {
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Vector{}, err
		}

		numbers = append(numbers, f)
	}

	return NewVector(numbers)
}

func parseErrorf(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", m.ErrParse, line, fmt.Sprintf(format, args...))
}
