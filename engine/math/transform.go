package math

func TransformCreate() *Transform {
	t := &Transform{}
	t.SetPositionRotationScale(NewVec3Zero(), NewQuatIdentity(), NewVec3One())
	t.Local = NewMat4Identity()
	t.Parent = nil
	return t
}

func TransformFromPositionRotationScale(position Vec3, rotation Quaternion, scale Vec3) *Transform {
	t := &Transform{}
	t.SetPositionRotationScale(position, rotation, scale)
	t.Local = NewMat4Identity()
	t.Parent = nil
	return t
}

// TransformFromMatrix wraps a pre-composed local matrix, as found on glTF
// nodes carrying a `matrix` property instead of TRS.
func TransformFromMatrix(local Mat4) *Transform {
	t := TransformCreate()
	t.Local = local
	t.IsDirty = false
	return t
}

func (t *Transform) SetPositionRotationScale(position Vec3, rotation Quaternion, scale Vec3) {
	t.Position = position
	t.Rotation = rotation
	t.Scale = scale
	t.IsDirty = true
}

// GetLocal returns the local matrix, recomposing it from
// position/rotation/scale when dirty.
func (t *Transform) GetLocal() Mat4 {
	if t.IsDirty {
		tr := NewMat4Translation(t.Position).Mul(t.Rotation.ToMat4())
		t.Local = tr.Mul(NewMat4Scale(t.Scale))
		t.IsDirty = false
	}
	return t.Local
}

// GetWorld walks the parent chain and returns the combined world matrix.
func (t *Transform) GetWorld() Mat4 {
	local := t.GetLocal()
	if t.Parent != nil {
		return t.Parent.GetWorld().Mul(local)
	}
	return local
}
