package sqlinline

const QInsertDesignBatch = `--sql c944eb5b-d92d-4f5b-a12a-e44401720c04
insert into design_batches (id, user_id, prompt, created_at)
values ($1::uuid, $2::uuid, $3::text, now());
`

const QInsertDesignCandidate = `--sql 4ef80ba6-9761-45b3-b635-6167548774fe
insert into design_candidates (id, batch_id, variation_index, style_hint, image_url, pricing, created_at)
values ($1::uuid, $2::uuid, $3::int, $4::text, $5::text, $6::jsonb, now());
`

// QSelectOwnedCandidate only matches candidates from the caller's own batches.
const QSelectOwnedCandidate = `--sql 8cdf8106-561e-4928-8361-26451a0a98ab
select c.id, c.variation_index, c.style_hint, c.image_url, c.pricing
from design_candidates c
join design_batches b on b.id = c.batch_id
where c.id = $1::uuid and b.user_id = $2::uuid
limit 1;
`
