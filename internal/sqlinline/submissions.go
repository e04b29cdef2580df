package sqlinline

const QInsertSubmission = `--sql 1241d451-4553-4226-83a0-cedaf25c85e8
insert into submissions (
    id, user_id, name, description, category, base_price, selling_price,
    length_in, breadth_in, height_in, image_url, model_url, status, price_source, created_at
) values (
    $1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::numeric, $7::numeric,
    $8::numeric, $9::numeric, $10::numeric, $11::text, nullif($12::text, ''), $13::text,
    coalesce(nullif($14::text, ''), 'recomputed'), now()
)
returning created_at;
`

const QSelectSubmissionByID = `--sql 435b06d9-9629-43d8-a71b-7db38a05084b
select id, user_id, name, description, category, base_price::float8, selling_price::float8,
       length_in::float8, breadth_in::float8, height_in::float8, image_url, coalesce(model_url, ''), status,
       coalesce(price_source, 'recomputed'), created_at
from submissions
where id = $1::uuid
limit 1;
`
