package sqlite

/*
typedef struct sqlite3 sqlite3;
typedef struct sqlite3_stmt sqlite3_stmt;

// Provided by the library go-sqlite3 links in. Weak so this package links on
// its own; the final binary always carries the driver's definitions.
extern int sqlite3_bind_null(sqlite3_stmt*, int) __attribute__((weak));
extern int sqlite3_bind_int64(sqlite3_stmt*, int, long long) __attribute__((weak));
extern int sqlite3_bind_double(sqlite3_stmt*, int, double) __attribute__((weak));
extern int sqlite3_bind_text(sqlite3_stmt*, int, const char*, int, void(*)(void*)) __attribute__((weak));
extern int sqlite3_bind_blob(sqlite3_stmt*, int, const void*, int, void(*)(void*)) __attribute__((weak));
extern int sqlite3_bind_zeroblob(sqlite3_stmt*, int, int) __attribute__((weak));
extern int sqlite3_clear_bindings(sqlite3_stmt*) __attribute__((weak));
extern int sqlite3_reset(sqlite3_stmt*) __attribute__((weak));
extern int sqlite3_step(sqlite3_stmt*) __attribute__((weak));
extern int sqlite3_column_count(sqlite3_stmt*) __attribute__((weak));
extern const char *sqlite3_column_name(sqlite3_stmt*, int) __attribute__((weak));
extern int sqlite3_column_type(sqlite3_stmt*, int) __attribute__((weak));
extern long long sqlite3_column_int64(sqlite3_stmt*, int) __attribute__((weak));
extern double sqlite3_column_double(sqlite3_stmt*, int) __attribute__((weak));
extern const unsigned char *sqlite3_column_text(sqlite3_stmt*, int) __attribute__((weak));
extern const void *sqlite3_column_blob(sqlite3_stmt*, int) __attribute__((weak));
extern int sqlite3_column_bytes(sqlite3_stmt*, int) __attribute__((weak));
extern sqlite3 *sqlite3_db_handle(sqlite3_stmt*) __attribute__((weak));
extern const char *sqlite3_errmsg(sqlite3*) __attribute__((weak));

// cgo doesn't handle the SQLITE_TRANSIENT pointer constant.
static int bind_text(sqlite3_stmt *s, int i, const char *p, int n) {
	if (n > 0) {
		return sqlite3_bind_text(s, i, p, n, (void(*)(void*))-1);
	}
	return sqlite3_bind_text(s, i, "", 0, (void(*)(void*))0);
}
static int bind_blob(sqlite3_stmt *s, int i, const void *p, int n) {
	if (n > 0) {
		return sqlite3_bind_blob(s, i, p, n, (void(*)(void*))-1);
	}
	return sqlite3_bind_zeroblob(s, i, 0);
}

// One cgo call for the storage classes of the whole row.
static void column_types(sqlite3_stmt *s, unsigned char *p, int n) {
	int i = 0;
	for (; i < n; ++i, ++p) {
		*p = sqlite3_column_type(s, i);
	}
}
*/
import "C"

import (
	"fmt"
	"math"
	"reflect"
	"unsafe"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// Step results and fundamental datatypes.
const (
	resultRow  = 100
	resultDone = 101

	typeInteger = 1
	typeFloat   = 2
	typeText    = 3
	typeBlob    = 4
)

// stmt binds, steps and reads a statement prepared by go-sqlite3 through
// the C API directly. The driver's own rows convert values by declared
// column type (BOOLEAN, DATE, DATETIME, TIMESTAMP), which would hide the
// storage class; reading sqlite3_column_type keeps it.
type stmt struct {
	s     *sqlite3.SQLiteStmt
	raw   *C.sqlite3_stmt
	cols  []string
	types []byte
	row   bool
	done  bool
}

func newStmt(s *sqlite3.SQLiteStmt) (*stmt, error) {
	raw, err := rawStmt(s)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return &stmt{s: s, raw: raw}, nil
}

// rawStmt returns the sqlite3_stmt handle go-sqlite3 keeps unexported.
func rawStmt(s *sqlite3.SQLiteStmt) (*C.sqlite3_stmt, error) {
	f := reflect.ValueOf(s).Elem().FieldByName("s")
	if !f.IsValid() || f.Kind() != reflect.Pointer || f.IsNil() {
		return nil, &Error{Code: CodeMisuse, Message: "driver statement has no engine handle"}
	}
	return (*C.sqlite3_stmt)(f.UnsafePointer()), nil
}

func (s *stmt) BindParameterCount() int {
	return s.s.NumInput()
}

// Bind hands v to the engine at once, so size limits and range checks
// fail here rather than on the first Step.
func (s *stmt) Bind(pos int, v any) error {
	i := C.int(pos)
	var rc C.int
	switch v := v.(type) {
	case nil:
		rc = C.sqlite3_bind_null(s.raw, i)
	case int64:
		rc = C.sqlite3_bind_int64(s.raw, i, C.longlong(v))
	case float64:
		rc = C.sqlite3_bind_double(s.raw, i, C.double(v))
	case string:
		if len(v) > math.MaxInt32 {
			return &Error{Code: CodeTooBig, Message: "string or blob too big"}
		}
		rc = C.bind_text(s.raw, i, (*C.char)(unsafe.Pointer(unsafe.StringData(v))), C.int(len(v)))
	case []byte:
		if v == nil {
			rc = C.sqlite3_bind_null(s.raw, i)
			break
		}
		if len(v) > math.MaxInt32 {
			return &Error{Code: CodeTooBig, Message: "string or blob too big"}
		}
		rc = C.bind_blob(s.raw, i, unsafe.Pointer(unsafe.SliceData(v)), C.int(len(v)))
	default:
		return &Error{Code: CodeMismatch, Message: fmt.Sprintf("cannot bind %T", v)}
	}
	if rc != CodeOK {
		return s.lastError(rc)
	}
	return nil
}

func (s *stmt) Reset() error {
	s.row, s.done = false, false
	s.types = s.types[:0]
	rc := C.sqlite3_reset(s.raw)
	C.sqlite3_clear_bindings(s.raw)
	if rc != CodeOK {
		return s.lastError(rc)
	}
	return nil
}

// Step never calls back into the engine once the statement is done, since
// sqlite3_step would rerun it from the start.
func (s *stmt) Step() (bool, error) {
	if s.done {
		return false, nil
	}
	s.types = s.types[:0]
	switch rc := C.sqlite3_step(s.raw); rc {
	case resultRow:
		s.row = true
		return true, nil
	case resultDone:
		s.row, s.done = false, true
		return false, nil
	default:
		s.row, s.done = false, true
		return false, s.lastError(rc)
	}
}

func (s *stmt) Columns() []string {
	if s.cols == nil {
		n := int(C.sqlite3_column_count(s.raw))
		s.cols = make([]string, n)
		for i := range s.cols {
			s.cols[i] = C.GoString(C.sqlite3_column_name(s.raw, C.int(i)))
		}
	}
	return s.cols
}

func (s *stmt) Column(i int) any {
	if !s.row || i < 0 || i >= len(s.Columns()) {
		return nil
	}
	s.loadTypes()

	n := C.int(i)
	switch s.types[i] {
	case typeInteger:
		return int64(C.sqlite3_column_int64(s.raw, n))
	case typeFloat:
		return float64(C.sqlite3_column_double(s.raw, n))
	case typeText:
		p := C.sqlite3_column_text(s.raw, n)
		size := C.sqlite3_column_bytes(s.raw, n)
		return C.GoStringN((*C.char)(unsafe.Pointer(p)), size)
	case typeBlob:
		p := C.sqlite3_column_blob(s.raw, n)
		size := C.sqlite3_column_bytes(s.raw, n)
		if p == nil || size == 0 {
			return []byte{}
		}
		return C.GoBytes(p, size)
	default:
		return nil
	}
}

// loadTypes caches the storage classes of the current row. They are
// undefined once a column has been converted, so read them first.
func (s *stmt) loadTypes() {
	if len(s.types) > 0 {
		return
	}
	n := len(s.Columns())
	if n == 0 {
		return
	}
	if cap(s.types) < n {
		s.types = make([]byte, n)
	}
	s.types = s.types[:n]
	C.column_types(s.raw, (*C.uchar)(unsafe.Pointer(&s.types[0])), C.int(n))
}

func (s *stmt) Close() error {
	s.row, s.done = false, true
	if err := s.s.Close(); err != nil {
		return AsError(err)
	}
	return nil
}

func (s *stmt) lastError(rc C.int) *Error {
	msg := C.GoString(C.sqlite3_errmsg(C.sqlite3_db_handle(s.raw)))
	return &Error{Code: int(rc) & 0xff, Message: msg}
}
