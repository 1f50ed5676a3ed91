package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tinygo.org/x/go-llvm"
)

// EmitObject lowers m to a relocatable object file using the target
// machine selected by opt (the host triple when no architecture is
// given), writing it to out. If out is empty, the file is written to the
// current directory as "<name>.o", where name is src's base name without
// its extension, or "out" when src is empty. Grounded on the teacher's genTargetTriple/GenLLVM
// emission tail, generalized away from the teacher's RISC-V/ARM-specific
// CPU table since every target here goes through the same
// llvm.TargetMachine path.
func EmitObject(opt Options, src, out string, m llvm.Module) error {
	if opt.Verbose || opt.DumpIR {
		fmt.Println("LLVM IR:")
		m.Dump()
	}

	llvm.InitializeAllTargetInfos()
	llvm.InitializeAllTargets()
	llvm.InitializeAllTargetMCs()
	llvm.InitializeAllAsmParsers()
	llvm.InitializeAllAsmPrinters()

	t, triple, err := genTargetTriple(opt)
	if err != nil {
		return err
	}

	cpu := "generic"
	features := ""

	tm := t.CreateTargetMachine(triple, cpu, features,
		llvm.CodeGenLevelDefault,
		llvm.RelocDefault,
		llvm.CodeModelDefault)
	defer tm.Dispose()

	td := tm.CreateTargetData()
	defer td.Dispose()

	m.SetDataLayout(td.String())
	m.SetTarget(triple)

	buf, err := tm.EmitToMemoryBuffer(m, llvm.ObjectFile)
	if err != nil {
		return err
	} else if buf.IsNil() {
		return errors.New("could not emit compiled code to memory")
	}

	if out == "" {
		base := "out"
		if src != "" {
			base = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		}
		out = fmt.Sprintf("./%s.o", base)
	}

	fd, err := os.OpenFile(out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fd.Close(); cerr != nil {
			fmt.Println(cerr)
		}
	}()
	if _, err := fd.Write(buf.Bytes()); err != nil {
		return err
	}
	return nil
}

// genTargetTriple builds an LLVM target triple from opt, or the host
// default when no architecture was requested.
func genTargetTriple(opt Options) (llvm.Target, string, error) {
	var triple string
	if opt.TargetArch == UnknownArch {
		triple = llvm.DefaultTargetTriple()
	} else {
		sb := strings.Builder{}
		sb.Grow(24)

		switch opt.TargetArch {
		case Aarch64:
			sb.WriteString("aarch64")
		case Riscv64:
			sb.WriteString("riscv64")
		case Riscv32:
			sb.WriteString("riscv32")
		case X86_64:
			sb.WriteString("x86_64")
		case X86_32:
			sb.WriteString("x86")
		default:
			return llvm.Target{}, "", fmt.Errorf("unsupported target architecture identifier %d", opt.TargetArch)
		}
		sb.WriteRune('-')

		switch opt.TargetVendor {
		case PC, UnknownVendor:
			sb.WriteString("pc")
		case Apple:
			sb.WriteString("apple")
		case IBM:
			sb.WriteString("ibm")
		default:
			return llvm.Target{}, "", fmt.Errorf("unsupported target vendor identifier %d", opt.TargetVendor)
		}
		sb.WriteRune('-')

		switch opt.TargetOS {
		case Linux:
			sb.WriteString("linux")
		case Windows:
			sb.WriteString("win32")
		case MAC:
			sb.WriteString("darwin")
		default:
			sb.WriteString("none")
		}
		sb.WriteRune('-')
		sb.WriteString("gnu")

		triple = sb.String()
	}

	if opt.Verbose {
		fmt.Printf("compiling for target %s\n", triple)
	}
	if tt, err := llvm.GetTargetFromTriple(triple); err != nil {
		return llvm.Target{}, "", err
	} else {
		return tt, triple, nil
	}
}
