package game

import "testing"

func TestKindColorFollowsOrder(t *testing.T) {
	for i, k := range Kinds {
		if got := k.String(); got != KindOrder[i:i+1] {
			t.Errorf("Kinds[%d].String() = %q, want %q", i, got, KindOrder[i:i+1])
		}
		if got := k.Color(); got != Cell(i+1) {
			t.Errorf("%s.Color() = %d, want %d", k, got, i+1)
		}
		for _, row := range ShapeOf(k) {
			for _, c := range row {
				if c != Empty && c != k.Color() {
					t.Errorf("%s shape carries cell %d, want %d", k, c, k.Color())
				}
			}
		}
	}
}

func TestShapesAreSquare(t *testing.T) {
	for _, k := range Kinds {
		s := ShapeOf(k)
		for _, row := range s {
			if len(row) != len(s) {
				t.Errorf("%s shape is not square", k)
			}
		}
	}
}

func TestShapeOfReturnsCopy(t *testing.T) {
	s := ShapeOf(KindT)
	s[1][1] = Empty
	if ShapeOf(KindT)[1][1] == Empty {
		t.Error("modifying a shape changed the template")
	}
}

func TestRotateO(t *testing.T) {
	o := ShapeOf(KindO)
	if !o.RotateCW().Equal(o) {
		t.Error("rotating O changed its contents")
	}
}

func TestRotateFourTimesIsIdentity(t *testing.T) {
	for _, k := range Kinds {
		s := ShapeOf(k)
		r := s
		for range 4 {
			r = r.RotateCW()
		}
		if !r.Equal(s) {
			t.Errorf("%s rotated 4 times differs from the original", k)
		}
	}
}

func TestRotateClockwise(t *testing.T) {
	got := ShapeOf(KindT).RotateCW()
	c := KindT.Color()
	want := Shape{
		{0, c, 0},
		{0, c, c},
		{0, c, 0},
	}
	if !got.Equal(want) {
		t.Errorf("RotateCW(T) = %v, want %v", got, want)
	}
}

func TestMovePieceIsPure(t *testing.T) {
	p := NewPiece(KindS, 3, 0)
	q := MovePiece(p, -1, 2)
	if p.X != 3 || p.Y != 0 {
		t.Errorf("MovePiece mutated its input to (%d,%d)", p.X, p.Y)
	}
	if q.X != 2 || q.Y != 2 {
		t.Errorf("MovePiece = (%d,%d), want (2,2)", q.X, q.Y)
	}

	r := RotatePiece(p)
	if r.Shape.Equal(p.Shape) {
		t.Error("RotatePiece did not change the S shape")
	}
	if !p.Shape.Equal(ShapeOf(KindS)) {
		t.Error("RotatePiece mutated its input")
	}
}
