package columnarstore

import apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"

// Compression names a Parquet codec accepted by write_bars/write_quotes
// (spec §6: "Parquet with ZSTD compression by default; Snappy, Gzip, or
// uncompressed permitted"). The zero value is treated as CompressionZSTD.
type Compression string

const (
	CompressionZSTD         Compression = "ZSTD"
	CompressionSnappy       Compression = "SNAPPY"
	CompressionGzip         Compression = "GZIP"
	CompressionUncompressed Compression = "UNCOMPRESSED"
)

// copyOption resolves the DuckDB COPY ... (COMPRESSION <codec>) token,
// defaulting an unset Compression to ZSTD.
func (c Compression) copyOption() (string, error) {
	switch c {
	case "":
		return string(CompressionZSTD), nil
	case CompressionZSTD, CompressionSnappy, CompressionGzip, CompressionUncompressed:
		return string(c), nil
	default:
		return "", apperrors.Newf(apperrors.ErrCodeValidationInvalidType, "unsupported parquet compression %q", c)
	}
}
