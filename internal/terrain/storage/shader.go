package storage

import "strings"

// ShaderParams are the feature flags the generated shader text depends on.
// Synthesis is a pure function of this struct: identical params produce
// byte-identical source.
type ShaderParams struct {
	SurfacesEnabled bool
	NoiseEnabled    bool
}

// Stage section markers. The backend splits the generated source on these
// to build per-stage programs; everything before the vertex marker is a
// shared header prepended to both stages.
const (
	VertexMarker   = "//-- stage: vertex"
	FragmentMarker = "//-- stage: fragment"
)

// SplitShaderCode separates generated source into vertex and fragment
// stage sources, each prefixed with the shared header.
func SplitShaderCode(code string) (vertex, fragment string) {
	header, rest, _ := strings.Cut(code, VertexMarker)
	vert, frag, _ := strings.Cut(rest, FragmentMarker)
	return header + vert, header + frag
}

// GenerateShaderCode builds the terrain shader source for the given flags.
func GenerateShaderCode(p ShaderParams) string {
	var b strings.Builder
	w := func(line string) {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	w("#version 410 core")
	w("// generated terrain shader -- regenerated on feature flag changes, do not edit")
	w("")
	w("#define PI 3.14159265358979323846")
	w("")
	w("uniform float terrain_height = 512.0;")
	w("uniform float region_size = 1024.0;")
	w("uniform float region_pixel_size = 1.0;")
	w("uniform int region_map_size = 16;")
	w("")
	w("uniform sampler2D region_map;")
	w("uniform vec2 region_offsets[256];")
	w("uniform sampler2DArray height_maps;")
	w("uniform sampler2DArray control_maps;")
	w("")

	if p.SurfacesEnabled {
		w("uniform sampler2DArray texture_array_albedo;")
		w("uniform sampler2DArray texture_array_normal;")
		w("uniform vec3 texture_uv_scale_array[256];")
		w("uniform vec4 texture_color_array[256];")
		w("")
	}

	if p.NoiseEnabled {
		w("uniform sampler2D region_blend_map;")
		w("uniform float noise_scale = 2.0;")
		w("uniform float noise_height = 1.0;")
		w("uniform float noise_blend_near = 0.5;")
		w("uniform float noise_blend_far = 1.0;")
		w("")
		w("float hashv2(vec2 v) {")
		w("	return fract(1e4 * sin(17.0 * v.x + v.y * 0.1) * (0.1 + abs(sin(v.y * 13.0 + v.x))));")
		w("}")
		w("")
		w("float noise2D(vec2 st) {")
		w("	vec2 i = floor(st);")
		w("	vec2 f = fract(st);")
		w("")
		w("	float a = hashv2(i);")
		w("	float b = hashv2(i + vec2(1.0, 0.0));")
		w("	float c = hashv2(i + vec2(0.0, 1.0));")
		w("	float d = hashv2(i + vec2(1.0, 1.0));")
		w("")
		w("	vec2 u = f * f * (3.0 - 2.0 * f);")
		w("")
		w("	return mix(a, b, u.x) + (c - a) * u.y * (1.0 - u.x) + (d - b) * u.x * u.y;")
		w("}")
		w("")
	}

	// takes world uv, returns texel coords in region space plus layer index
	w("ivec3 get_region(vec2 uv) {")
	w("	float index = floor(texelFetch(region_map, ivec2(floor(uv)) + (region_map_size / 2), 0).r * 255.0) - 1.0;")
	w("	return ivec3(ivec2((uv - region_offsets[int(index)]) * region_size), int(index));")
	w("}")
	w("")
	w("vec3 get_regionf(vec2 uv) {")
	w("	float index = floor(texelFetch(region_map, ivec2(floor(uv)) + (region_map_size / 2), 0).r * 255.0) - 1.0;")
	w("	return vec3(uv - region_offsets[int(index)], index);")
	w("}")
	w("")
	w("float get_height(vec2 uv, bool interpolated) {")
	w("	float height = 0.0;")
	w("	if (!interpolated) {")
	w("		ivec3 region = get_region(uv);")
	w("		height = texelFetch(height_maps, region, 0).r;")
	w("	} else {")
	w("		vec3 region = get_regionf(uv);")
	w("		height = texture(height_maps, region).r;")
	w("	}")
	if p.NoiseEnabled {
		w("	float weight = texture(region_blend_map, (uv / float(region_map_size)) + 0.5).r;")
		w("	height = mix(height, noise2D(uv * noise_scale) * noise_height,")
		w("		clamp(smoothstep(noise_blend_near, noise_blend_far, 1.0 - weight), 0.0, 1.0));")
	}
	w("	return height * terrain_height;")
	w("}")
	w("")

	if p.SurfacesEnabled {
		w("float random(in vec2 xy) {")
		w("	return fract(sin(dot(xy, vec2(12.9898, 78.233))) * 43758.5453);")
		w("}")
		w("")
		w("float blend_weights(float weight, float detail) {")
		w("	weight = sqrt(weight * 0.5);")
		w("	return max(0.1 * weight, 10.0 * (weight + detail) + 1.0 - (detail + 10.0));")
		w("}")
		w("")
		w("vec4 depth_blend(vec4 a_value, float a_bump, vec4 b_value, float b_bump, float t) {")
		w("	float ma = max(a_bump + (1.0 - t), b_bump + t) - 0.1;")
		w("	float ba = max(a_bump + (1.0 - t) - ma, 0.0);")
		w("	float bb = max(b_bump + t - ma, 0.0);")
		w("	return (a_value * ba + b_value * bb) / (ba + bb);")
		w("}")
		w("")
		w("vec2 rotate2(vec2 v, float cosa, float sina) {")
		w("	return vec2(cosa * v.x - sina * v.y, sina * v.x + cosa * v.y);")
		w("}")
		w("")
		w("vec3 unpack_normal(vec4 rgba) {")
		w("	vec3 n = rgba.xzy * 2.0 - vec3(1.0);")
		w("	n.z *= -1.0;")
		w("	return n;")
		w("}")
		w("")
		w("vec4 pack_normal(vec3 n, float a) {")
		w("	n.z *= -1.0;")
		w("	return vec4((n.xzy + vec3(1.0)) * 0.5, a);")
		w("}")
		w("")
		w("vec4 get_material(vec2 uv, vec4 index, vec2 uv_center, float weight, inout float total_weight, inout vec4 out_normal) {")
		w("	float material = index.r * 255.0;")
		w("	float materialOverlay = index.g * 255.0;")
		w("	float rand = random(uv_center) * PI;")
		w("	vec2 rot = vec2(sin(rand), cos(rand));")
		w("	vec2 matUV = rotate2(uv, rot.x, rot.y) * texture_uv_scale_array[int(material)].xy;")
		w("	vec2 ddx = dFdx(uv);")
		w("	vec2 ddy = dFdy(uv);")
		w("")
		w("	vec4 albedo = textureGrad(texture_array_albedo, vec3(matUV, material), ddx, ddy);")
		w("	vec4 normal = textureGrad(texture_array_normal, vec3(matUV, material), ddx, ddy);")
		w("	albedo.rgb *= texture_color_array[int(material)].rgb;")
		w("	if (index.b > 0.0) {")
		w("		vec4 albedo2 = textureGrad(texture_array_albedo, vec3(matUV, materialOverlay), ddx, ddy);")
		w("		vec4 normal2 = textureGrad(texture_array_normal, vec3(matUV, materialOverlay), ddx, ddy);")
		w("		albedo2.rgb *= texture_color_array[int(materialOverlay)].rgb;")
		w("		albedo = depth_blend(albedo, albedo.a, albedo2, albedo2.a, index.b);")
		w("		normal = depth_blend(normal, albedo.a, normal2, albedo.a, index.b);")
		w("	}")
		w("")
		w("	vec3 n = unpack_normal(normal);")
		w("	n.xz = rotate2(n.xz, rot.x, -rot.y);")
		w("	normal = pack_normal(n, normal.a);")
		w("	weight = blend_weights(weight, albedo.a);")
		w("	out_normal += normal * weight;")
		w("	total_weight += weight;")
		w("	return albedo * weight;")
		w("}")
		w("")
	}

	w(VertexMarker)
	w("")
	w("uniform mat4 uModel;")
	w("uniform mat4 uViewProj;")
	w("")
	w("layout(location = 0) in vec3 aPos;")
	w("out vec2 vUV;")
	w("out vec2 vUV2;")
	w("")
	w("void main() {")
	w("	vec3 world_vertex = (uModel * vec4(aPos, 1.0)).xyz;")
	w("	vUV2 = (world_vertex.xz / vec2(region_size)) + vec2(0.5);")
	w("	vUV = world_vertex.xz * 0.5;")
	w("	gl_Position = uViewProj * vec4(world_vertex.x, get_height(vUV2, false), world_vertex.z, 1.0);")
	w("}")
	w("")

	w(FragmentMarker)
	w("")
	w("in vec2 vUV;")
	w("in vec2 vUV2;")
	w("out vec4 fragColor;")
	w("")
	w("void main() {")
	w("	float left = get_height(vUV2 + vec2(-region_pixel_size, 0), true);")
	w("	float right = get_height(vUV2 + vec2(region_pixel_size, 0), true);")
	w("	float back = get_height(vUV2 + vec2(0, -region_pixel_size), true);")
	w("	float fore = get_height(vUV2 + vec2(0, region_pixel_size), true);")
	w("")
	w("	vec3 horizontal = vec3(2.0, right - left, 0.0);")
	w("	vec3 vertical = vec3(0.0, back - fore, 2.0);")
	w("	vec3 normal = normalize(cross(vertical, horizontal));")
	w("	normal.z *= -1.0;")
	w("")

	if p.SurfacesEnabled {
		w("	// mirrored 4-tap index sampling, after cdxntchou/IndexMapTerrain")
		w("	vec2 pos_texel = vUV2 * region_size + 0.5;")
		w("	vec2 pos_texel00 = floor(pos_texel);")
		w("	vec4 mirror = vec4(fract(pos_texel00 * 0.5) * 2.0, 1.0, 1.0);")
		w("	mirror.zw = vec2(1.0) - mirror.xy;")
		w("")
		w("	ivec3 index00UV = get_region((pos_texel00 + mirror.xy) * region_pixel_size);")
		w("	ivec3 index01UV = get_region((pos_texel00 + mirror.xw) * region_pixel_size);")
		w("	ivec3 index10UV = get_region((pos_texel00 + mirror.zy) * region_pixel_size);")
		w("	ivec3 index11UV = get_region((pos_texel00 + mirror.zw) * region_pixel_size);")
		w("")
		w("	vec4 index00 = texelFetch(control_maps, index00UV, 0);")
		w("	vec4 index01 = texelFetch(control_maps, index01UV, 0);")
		w("	vec4 index10 = texelFetch(control_maps, index10UV, 0);")
		w("	vec4 index11 = texelFetch(control_maps, index11UV, 0);")
		w("")
		w("	vec2 weights1 = clamp(pos_texel - pos_texel00, 0, 1);")
		w("	weights1 = mix(weights1, vec2(1.0) - weights1, mirror.xy);")
		w("	vec2 weights0 = vec2(1.0) - weights1;")
		w("")
		w("	float total_weight = 0.0;")
		w("	vec4 in_normal = vec4(0.0);")
		w("	vec3 color = vec3(0.0);")
		w("")
		w("	color = get_material(vUV, index00, vec2(index00UV.xy), weights0.x * weights0.y, total_weight, in_normal).rgb;")
		w("	color += get_material(vUV, index01, vec2(index01UV.xy), weights0.x * weights1.y, total_weight, in_normal).rgb;")
		w("	color += get_material(vUV, index10, vec2(index10UV.xy), weights1.x * weights0.y, total_weight, in_normal).rgb;")
		w("	color += get_material(vUV, index11, vec2(index11UV.xy), weights1.x * weights1.y, total_weight, in_normal).rgb;")
		w("")
		w("	color /= total_weight;")
		w("")
		w("	float light = max(dot(normal, normalize(vec3(0.35, 1.0, 0.25))), 0.0) * 0.8 + 0.2;")
		w("	fragColor = vec4(color * light, 1.0);")
	} else {
		w("	// no surfaces configured: antialiased checker grid")
		w("	vec2 p = vUV * 4.0;")
		w("	vec2 ddx = dFdx(p);")
		w("	vec2 ddy = dFdy(p);")
		w("	vec2 wd = max(abs(ddx), abs(ddy)) + 0.01;")
		w("	vec2 i = 2.0 * (abs(fract((p - 0.5 * wd) / 2.0) - 0.5) - abs(fract((p + 0.5 * wd) / 2.0) - 0.5)) / wd;")
		w("	vec3 color = vec3((0.5 - 0.5 * i.x * i.y) * 0.2 + 0.2);")
		w("")
		w("	float light = max(dot(normal, normalize(vec3(0.35, 1.0, 0.25))), 0.0) * 0.8 + 0.2;")
		w("	fragColor = vec4(color * light, 1.0);")
	}
	w("}")

	return b.String()
}
