package filter

import "github.com/cwbudde/algo-nmr/nmr/datum"

func is1D(s *datum.State) bool { return s.Is1D() }
func is2D(s *datum.State) bool { return s.Is2D() }

func shiftXKind() Kind {
	return New(Spec[ShiftXOptions]{
		Name:         ShiftX,
		Label:        "Shift X",
		Capabilities: Capabilities{Once: true},
		Applicable:   is1D,
		Apply: func(s *datum.State, o ShiftXOptions) error {
			for i := range s.Data.X {
				s.Data.X[i] += o.Shift
			}
			return nil
		},
		Reduce: func(prev, next ShiftXOptions) (ShiftXOptions, bool) {
			return ShiftXOptions{Shift: prev.Shift + next.Shift}, true
		},
	})
}

func shift2DXKind() Kind {
	return New(Spec[Shift2DXOptions]{
		Name:         Shift2DX,
		Label:        "Shift 2D X",
		Capabilities: Capabilities{Once: true},
		Applicable:   is2D,
		Apply: func(s *datum.State, o Shift2DXOptions) error {
			m := s.Data.Matrix
			m.MinX += o.Shift
			m.MaxX += o.Shift
			return nil
		},
		Reduce: func(prev, next Shift2DXOptions) (Shift2DXOptions, bool) {
			return Shift2DXOptions{Shift: prev.Shift + next.Shift}, true
		},
	})
}

func shift2DYKind() Kind {
	return New(Spec[Shift2DYOptions]{
		Name:         Shift2DY,
		Label:        "Shift 2D Y",
		Capabilities: Capabilities{Once: true},
		Applicable:   is2D,
		Apply: func(s *datum.State, o Shift2DYOptions) error {
			m := s.Data.Matrix
			m.MinY += o.Shift
			m.MaxY += o.Shift
			return nil
		},
		Reduce: func(prev, next Shift2DYOptions) (Shift2DYOptions, bool) {
			return Shift2DYOptions{Shift: prev.Shift + next.Shift}, true
		},
	})
}
