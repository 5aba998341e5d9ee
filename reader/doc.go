// Package reader loads screening tables from files and object storage.
//
// A table location is a local path, a glob pattern matching several local
// files, or an s3://bucket/key URL. The format is taken from the extension:
//
//   - .csv, optionally gzip-compressed as .csv.gz
//   - .parquet
//
// Every file must have a header (or schema) containing the identifier column,
// "Ticker" by default. Remaining columns are metrics; cells that are empty or
// not numeric are loaded as missing values.
//
// # Basic Usage
//
//	src, err := reader.NewSource("data/stocks.csv", reader.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tbl, err := src.Load(ctx)
//
// # Load Once
//
// Servers load the table lazily on first use and then share it read-only:
//
//	cache := reader.NewCache(src, logger)
//	tbl, err := cache.Get(ctx)
//
// Only the first caller performs the load; concurrent callers wait for it and
// later callers read the cached table without locking. A failed load is
// returned to the caller and tried again on the next call.
//
// # Object Storage
//
// s3:// locations are fetched with the MinIO client, which works with AWS S3
// and S3-compatible stores:
//
//	src, err := reader.NewSource("s3://market-data/stocks.parquet", reader.Options{
//	    Storage: reader.StorageOptions{
//	        Endpoint:  "localhost:9000",
//	        AccessKey: "minioadmin",
//	        SecretKey: "minioadmin",
//	    },
//	})
//
// All load failures are reported as *LoadError and match ErrLoad with errors.Is.
package reader
