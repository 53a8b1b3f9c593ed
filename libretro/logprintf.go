package libretro

import (
	"fmt"
	"strconv"
	"strings"
	"unsafe"

	hostapi "github.com/user-none/retrohost/api"
)

// coreLog handles a retro_log_printf call.
func (s *Session) coreLog(level uint32, format string, args []uintptr) {
	lvl := hostapi.LogLevel(level)
	if lvl > hostapi.LogError {
		lvl = hostapi.LogError
	}
	msg := format
	if args != nil {
		msg = formatCLog(format, args)
	}
	s.logf(lvl, "[%s] %s", s.coreLabel(), strings.TrimRight(msg, "\r\n"))
}

// formatCLog renders a C printf format from integer-class arguments.
// Floating point conversions cannot be recovered from integer registers and
// print as "?" without consuming an argument.
func formatCLog(format string, args []uintptr) string {
	var b strings.Builder
	next := 0
	arg := func() (uintptr, bool) {
		if next >= len(args) {
			return 0, false
		}
		v := args[next]
		next++
		return v, true
	}

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		start := i
		i++
		if i >= len(format) {
			b.WriteByte('%')
			break
		}
		if format[i] == '%' {
			b.WriteByte('%')
			continue
		}

		spec := []byte{'%'}
		for i < len(format) && strings.IndexByte("-+ #0", format[i]) >= 0 {
			spec = append(spec, format[i])
			i++
		}
		if i < len(format) && format[i] == '*' {
			w, _ := arg()
			spec = strconv.AppendInt(spec, int64(int32(w)), 10)
			i++
		}
		for i < len(format) && format[i] >= '0' && format[i] <= '9' {
			spec = append(spec, format[i])
			i++
		}
		if i < len(format) && format[i] == '.' {
			spec = append(spec, '.')
			i++
			if i < len(format) && format[i] == '*' {
				p, _ := arg()
				spec = strconv.AppendInt(spec, int64(int32(p)), 10)
				i++
			}
			for i < len(format) && format[i] >= '0' && format[i] <= '9' {
				spec = append(spec, format[i])
				i++
			}
		}

		bits := 32
		for i < len(format) && strings.IndexByte("hlzjtLq", format[i]) >= 0 {
			switch format[i] {
			case 'h':
				if bits == 16 {
					bits = 8
				} else {
					bits = 16
				}
			default:
				bits = 64
			}
			i++
		}
		if i >= len(format) {
			b.WriteString(format[start:])
			break
		}

		conv := format[i]
		switch conv {
		case 'f', 'F', 'e', 'E', 'g', 'G', 'a', 'A':
			b.WriteByte('?')
			continue
		case 'n':
			arg()
			continue
		}

		v, ok := arg()
		if !ok {
			b.WriteString(format[start : i+1])
			continue
		}
		switch conv {
		case 'd', 'i':
			b.WriteString(fmt.Sprintf(string(append(spec, 'd')), signExtend(v, bits)))
		case 'u':
			b.WriteString(fmt.Sprintf(string(append(spec, 'd')), truncate(v, bits)))
		case 'x', 'X', 'o':
			b.WriteString(fmt.Sprintf(string(append(spec, conv)), truncate(v, bits)))
		case 'c':
			b.WriteString(fmt.Sprintf(string(append(spec, 'c')), rune(byte(v))))
		case 's':
			str := "(null)"
			if v != 0 {
				str = goString((*byte)(unsafe.Pointer(v)))
			}
			b.WriteString(fmt.Sprintf(string(append(spec, 's')), str))
		case 'p':
			b.WriteString(fmt.Sprintf("0x%x", uint64(v)))
		default:
			b.WriteString(format[start : i+1])
		}
	}
	return b.String()
}

func signExtend(v uintptr, bits int) int64 {
	switch bits {
	case 8:
		return int64(int8(v))
	case 16:
		return int64(int16(v))
	case 32:
		return int64(int32(v))
	default:
		return int64(v)
	}
}

func truncate(v uintptr, bits int) uint64 {
	switch bits {
	case 8:
		return uint64(uint8(v))
	case 16:
		return uint64(uint16(v))
	case 32:
		return uint64(uint32(v))
	default:
		return uint64(v)
	}
}
